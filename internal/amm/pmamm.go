package amm

import (
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

var secondsPerYear = fixedpoint.FromInt64(365 * 24 * 60 * 60)

var (
	priceFloor = fixedpoint.FromBps(100) // 0.01
	priceCeil = fixedpoint.FromBps(9_900) // 0.99
)

// PMAMM holds a prediction-market AMM's state: liquidity parameter L,
// per-outcome reserves, an expiry and the uniform-LVR flag.
type PMAMM struct {
	L fixedpoint.Q64
	Reserves []fixedpoint.Q64
	ExpiryUnix int64
	UniformLVR bool
	AccumulatedLVR fixedpoint.Q64
}

// NewPMAMM builds a PM-AMM with n outcomes, equal reserves = L/n.
func NewPMAMM(l fixedpoint.Q64, numOutcomes int, expiryUnix int64, uniformLVR bool) (*PMAMM, error) {
	reserves := make([]fixedpoint.Q64, numOutcomes)
	n := fixedpoint.FromInt64(int64(numOutcomes))
	share, err := l.Div(n)
	if err != nil {
		return nil, err
	}
	for i := range reserves {
		reserves[i] = share
	}
	return &PMAMM{L: l, Reserves: reserves, ExpiryUnix: expiryUnix, UniformLVR: uniformLVR}, nil
}

// Prices returns reserves normalized to sum to 1, clamped to
// [0.01, 0.99] per outcome
func (m *PMAMM) Prices() ([]fixedpoint.Q64, error) {
	total := fixedpoint.FromInt64(0)
	var err error
	for _, r := range m.Reserves {
		total, err = total.Add(r)
		if err != nil {
			return nil, err
		}
	}
	if total.IsZero() {
		return nil, domain.ErrDivisionByZero
	}
	prices := make([]fixedpoint.Q64, len(m.Reserves))
	for i, r := range m.Reserves {
		p, err := r.Div(total)
		if err != nil {
			return nil, err
		}
		prices[i] = p.Clamp(priceFloor, priceCeil)
	}
	return prices, nil
}

// timeToExpiryFraction returns time_to_expiry / year, floored at 0
// once expiry has passed.
func (m *PMAMM) timeToExpiryFraction(now time.Time) (fixedpoint.Q64, error) {
	remaining := m.ExpiryUnix - now.Unix()
	if remaining < 0 {
		remaining = 0
	}
	return fixedpoint.FromInt64(remaining).Div(secondsPerYear)
}

// Impact computes the trade-impact scalar: (size/L) · sqrt(time_to_expiry/year).
func (m *PMAMM) Impact(size fixedpoint.Q64, now time.Time) (fixedpoint.Q64, error) {
	ratio, err := size.Div(m.L)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	frac, err := m.timeToExpiryFraction(now)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	sqrtFrac, err := frac.Sqrt()
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return ratio.Mul(sqrtFrac)
}

// Trade applies a buy of `size` notional on `outcome`, moving reserves
// toward that outcome scaled by the impact factor, then records LVR:
// |ln(p'/p)| · L.
func (m *PMAMM) Trade(outcome int, size fixedpoint.Q64, now time.Time) (newPrices []fixedpoint.Q64, lvr fixedpoint.Q64, err error) {
	if outcome < 0 || outcome >= len(m.Reserves) {
		return nil, fixedpoint.Q64{}, domain.ErrInvalidOutcome
	}
	before, err := m.Prices()
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}

	impact, err := m.Impact(size, now)
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}
	delta, err := size.Mul(impact)
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}
	m.Reserves[outcome], err = m.Reserves[outcome].Add(delta)
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}
	// the rest of the reserve mass contracts proportionally so total
	// reserves are conserved.
	n := len(m.Reserves)
	perOther, err := delta.Div(fixedpoint.FromInt64(int64(n - 1)))
	if err != nil && n > 1 {
		return nil, fixedpoint.Q64{}, err
	}
	for i := range m.Reserves {
		if i == outcome {
			continue
		}
		m.Reserves[i], err = m.Reserves[i].Sub(perOther)
		if err != nil {
			return nil, fixedpoint.Q64{}, err
		}
	}

	after, err := m.Prices()
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}

	ratio, err := after[outcome].Div(before[outcome])
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}
	lnRatio, err := fixedpoint.Ln(ratio)
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}
	tradeLVR, err := lnRatio.Abs().Mul(m.L)
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}
	m.AccumulatedLVR, err = m.AccumulatedLVR.Add(tradeLVR)
	if err != nil {
		return nil, fixedpoint.Q64{}, err
	}

	return after, tradeLVR, nil
}
