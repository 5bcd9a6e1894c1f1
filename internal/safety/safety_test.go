package safety

import (
	"testing"
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowPartialRestrictsTrading(t *testing.T) {
	state := &domain.SafetyState{PauseLevel: domain.PausePartial}
	assert.ErrorIs(t, Allow(state, domain.CategoryTrading), domain.ErrProtocolPaused)
	assert.NoError(t, Allow(state, domain.CategoryLiquidation))
	assert.NoError(t, Allow(state, domain.CategoryView))
}

func TestAllowFreezeBlocksEverything(t *testing.T) {
	state := &domain.SafetyState{PauseLevel: domain.PauseFreeze}
	assert.ErrorIs(t, Allow(state, domain.CategoryView), domain.ErrProtocolFrozen)
	assert.ErrorIs(t, Allow(state, domain.CategoryEmergency), domain.ErrProtocolFrozen)
}

func TestAllowCategoryOverrideBlocksSingleCategory(t *testing.T) {
	state := &domain.SafetyState{
		PauseLevel:      domain.PauseNone,
		CategoryBitmask: map[domain.Category]bool{domain.CategoryTrading: false},
	}
	assert.ErrorIs(t, Allow(state, domain.CategoryTrading), domain.ErrProtocolPaused)
	assert.NoError(t, Allow(state, domain.CategoryLiquidation))
}

func TestCheckFeedOutagePausesTradingOnly(t *testing.T) {
	state := &domain.SafetyState{
		PauseLevel:      domain.PauseNone,
		LastFeedSuccess: time.Now().Add(-10 * time.Minute),
	}
	CheckFeedOutage(state, time.Now())
	assert.Equal(t, domain.PausePartial, state.PauseLevel)
	assert.ErrorIs(t, Allow(state, domain.CategoryTrading), domain.ErrProtocolPaused)
	assert.NoError(t, Allow(state, domain.CategoryLiquidation))
}

func TestCheckFeedOutageNoOpWhenFresh(t *testing.T) {
	state := &domain.SafetyState{
		PauseLevel:      domain.PauseNone,
		LastFeedSuccess: time.Now(),
	}
	CheckFeedOutage(state, time.Now())
	assert.Equal(t, domain.PauseNone, state.PauseLevel)
}

func TestRecordFeedSuccessClearsOverride(t *testing.T) {
	state := &domain.SafetyState{
		PauseLevel:      domain.PausePartial,
		CategoryBitmask: map[domain.Category]bool{domain.CategoryTrading: false},
	}
	RecordFeedSuccess(state, time.Now())
	assert.NoError(t, Allow(state, domain.CategoryTrading))
}

func TestCheckAutoUnpauseResetsAtSlot(t *testing.T) {
	slot := uint64(1000)
	state := &domain.SafetyState{PauseLevel: domain.PauseFull, AutoUnpauseSlot: &slot}
	CheckAutoUnpause(state, 999)
	assert.Equal(t, domain.PauseFull, state.PauseLevel)
	CheckAutoUnpause(state, 1000)
	assert.Equal(t, domain.PauseNone, state.PauseLevel)
	assert.Nil(t, state.AutoUnpauseSlot)
}

func TestBreakerTripsOnBreach(t *testing.T) {
	b := NewBreaker(ThresholdConfig{Kind: TripVolatility, Threshold: fixedpoint.FromBps(1000), Engages: domain.PausePartial})
	tripped, engages := b.Observe(fixedpoint.FromBps(1500))
	assert.True(t, tripped)
	assert.Equal(t, domain.PausePartial, engages)
	assert.True(t, b.IsOpen())
}

func TestBreakerRecoversAfterStreak(t *testing.T) {
	b := NewBreaker(ThresholdConfig{Kind: TripVolatility, Threshold: fixedpoint.FromBps(1000), Engages: domain.PausePartial})
	b.Observe(fixedpoint.FromBps(1500))
	require.True(t, b.IsOpen())
	for i := 0; i < recoverStreak; i++ {
		b.Observe(fixedpoint.FromBps(100))
	}
	assert.False(t, b.IsOpen())
}

func TestManagerTickAppliesWorstLevel(t *testing.T) {
	mgr := NewManager(DefaultThresholds())
	state := &domain.SafetyState{PauseLevel: domain.PauseNone}
	mgr.Tick(state, map[TripKind]fixedpoint.Q64{
		TripVolatility:       fixedpoint.FromBps(1500),
		TripLiquidationCount: fixedpoint.FromInt64(100),
	})
	assert.Equal(t, domain.PauseFull, state.PauseLevel)
}

func TestBootstrapLeverageCapScalesLinearly(t *testing.T) {
	lo, err := BootstrapLeverageCap(fixedpoint.FromInt64(500))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lo.Float64(), 1e-9)

	mid, err := BootstrapLeverageCap(fixedpoint.FromInt64(5_500))
	require.NoError(t, err)
	assert.InDelta(t, 5.5, mid.Float64(), 1e-6)

	hi, err := BootstrapLeverageCap(fixedpoint.FromInt64(20_000))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, hi.Float64(), 1e-9)
}

func TestCheckCoverageHaltsBelowMinimum(t *testing.T) {
	state := &domain.SafetyState{BootstrapVault: fixedpoint.FromInt64(100)}
	err := CheckCoverage(state, fixedpoint.FromInt64(10_000), 500) // tail loss = 500
	assert.ErrorIs(t, err, domain.ErrCoverageRatioBelowMin)
}

func TestCheckCoverageSucceedsAboveMinimum(t *testing.T) {
	state := &domain.SafetyState{BootstrapVault: fixedpoint.FromInt64(1_000)}
	err := CheckCoverage(state, fixedpoint.FromInt64(10_000), 500) // tail loss = 500, ratio = 2.0
	require.NoError(t, err)
	assert.InDelta(t, 2.0, state.CoverageRatio.Float64(), 1e-6)
}
