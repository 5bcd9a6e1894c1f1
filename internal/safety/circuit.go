package safety

import (
	"sync"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// TripKind identifies which threshold a breaker guards.
type TripKind int

const (
	TripVolatility TripKind = iota
	TripVolumeRatio
	TripLiquidationCount
	TripProtocolLoss
)

// ThresholdConfig is one breaker's configurable trip threshold and the
// pause level it engages when tripped.
type ThresholdConfig struct {
	Kind TripKind
	Threshold fixedpoint.Q64
	Engages domain.PauseLevel
}

// DefaultThresholds matches the protocol's named default thresholds:
// volatility > 10%, volume ratio > 500% → Partial; liquidation count
// and protocol loss bp over threshold → Full.
func DefaultThresholds() []ThresholdConfig {
	return []ThresholdConfig{
		{Kind: TripVolatility, Threshold: fixedpoint.FromBps(1000), Engages: domain.PausePartial},
		{Kind: TripVolumeRatio, Threshold: fixedpoint.FromBps(50_000), Engages: domain.PausePartial},
		{Kind: TripLiquidationCount, Threshold: fixedpoint.FromInt64(50), Engages: domain.PauseFull},
		{Kind: TripProtocolLoss, Threshold: fixedpoint.FromBps(500), Engages: domain.PauseFull},
	}
}

// Breaker is a protocol-internal state-machine circuit breaker over a
// threshold on ledger-internal counters (as opposed to an outbound
// network call): Closed/Open/HalfOpen transitioned by consecutive
// good/bad observations rather than a request-timeout window.
type Breaker struct {
	mu sync.Mutex
	config ThresholdConfig
	state breakerState
	goodStreak int
	recoverAfter int
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// recoverStreak consecutive below-threshold observations are required
// before a half-open breaker closes again.
const recoverStreak = 3

// NewBreaker constructs a breaker for the given threshold config.
func NewBreaker(config ThresholdConfig) *Breaker {
	return &Breaker{config: config, recoverAfter: recoverStreak}
}

// Observe feeds one reading of the guarded metric; it trips the
// breaker open on first threshold breach and requires recoverStreak
// consecutive clean readings (half-open) before re-closing.
func (b *Breaker) Observe(value fixedpoint.Q64) (tripped bool, engages domain.PauseLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	breached := value.Cmp(b.config.Threshold) > 0
	switch b.state {
	case breakerClosed:
		if breached {
			b.state = breakerOpen
			b.goodStreak = 0
			return true, b.config.Engages
		}
	case breakerOpen:
		if !breached {
			b.state = breakerHalfOpen
			b.goodStreak = 1
		}
	case breakerHalfOpen:
		if breached {
			b.state = breakerOpen
			b.goodStreak = 0
			return true, b.config.Engages
		}
		b.goodStreak++
		if b.goodStreak >= b.recoverAfter {
			b.state = breakerClosed
		}
	}
	return false, domain.PauseNone
}

// IsOpen reports whether the breaker currently blocks its category.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != breakerClosed
}

// Manager owns one breaker per TripKind and applies the worst (most
// restrictive) engaged pause level to a SafetyState on each tick.
type Manager struct {
	breakers map[TripKind]*Breaker
}

// NewManager builds a Manager with one breaker per DefaultThresholds
// entry, or the caller's own threshold set.
func NewManager(thresholds []ThresholdConfig) *Manager {
	m := &Manager{breakers: make(map[TripKind]*Breaker, len(thresholds))}
	for _, t := range thresholds {
		m.breakers[t.Kind] = NewBreaker(t)
	}
	return m
}

// Tick feeds the current readings for every tracked kind and applies
// the most restrictive resulting pause level to state (never
// downgrades a level set by another mechanism, e.g. an explicit admin
// Freeze).
func (m *Manager) Tick(state *domain.SafetyState, readings map[TripKind]fixedpoint.Q64) {
	worst := domain.PauseNone
	for kind, breaker := range m.breakers {
		value, ok := readings[kind]
		if !ok {
			continue
		}
		if _, engages := breaker.Observe(value); engages > worst {
			worst = engages
		}
	}
	if worst > state.PauseLevel {
		state.PauseLevel = worst
	}
}
