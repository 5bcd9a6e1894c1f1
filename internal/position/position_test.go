package position

import (
	"testing"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsExcessiveLeverage(t *testing.T) {
	_, err := Open(OpenParams{
		Notional: fixedpoint.FromInt64(1000), Leverage: fixedpoint.FromInt64(2000),
		Collateral: fixedpoint.FromInt64(1000), EntryPrice: fixedpoint.FromFloat64(0.5),
		OracleScalar: fixedpoint.FromInt64(1),
	})
	assert.ErrorIs(t, err, domain.ErrLeverageOutOfBounds)
}

func TestOpenRejectsInsufficientCollateral(t *testing.T) {
	_, err := Open(OpenParams{
		Notional: fixedpoint.FromInt64(1000), Leverage: fixedpoint.FromInt64(10),
		Collateral: fixedpoint.FromInt64(1), EntryPrice: fixedpoint.FromFloat64(0.5),
		OracleScalar: fixedpoint.FromInt64(1),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCollateral)
}

func TestOpenComputesLiquidationPriceForLong(t *testing.T) {
	pos, err := Open(OpenParams{
		Key:          domain.PositionKey{Side: domain.SideBuy},
		Notional:     fixedpoint.FromInt64(1000),
		Leverage:     fixedpoint.FromInt64(10),
		Collateral:   fixedpoint.FromInt64(200),
		EntryPrice:   fixedpoint.FromFloat64(0.5),
		OracleScalar: fixedpoint.FromInt64(1),
	})
	require.NoError(t, err)
	// liq = 0.5*(1 - 0.1 + 0.01) = 0.455
	assert.InDelta(t, 0.455, pos.LiquidationPrice.Float64(), 1e-6)
}

func TestFundingRateClamped(t *testing.T) {
	r, err := FundingRate(fixedpoint.FromFloat64(2.0), fixedpoint.FromFloat64(1.0), fixedpoint.FromInt64(0))
	require.NoError(t, err)
	assert.InDelta(t, 0.0075, r.Float64(), 1e-9)
}

func TestAccrueFundingReducesLongNotionalOnPositiveRate(t *testing.T) {
	pos := &domain.Position{
		Size: fixedpoint.FromInt64(1000), AccumulatedFunding: fixedpoint.FromInt64(0),
		LastFundingSlot: 0,
	}
	err := AccrueFunding(pos, fixedpoint.FromBps(75), slotsPerPeriod)
	require.NoError(t, err)
	assert.True(t, pos.AccumulatedFunding.Sign() < 0)
	assert.Equal(t, uint64(slotsPerPeriod), pos.LastFundingSlot)
}

func TestCloseRealizesPnLWithFundingAndFee(t *testing.T) {
	pos := &domain.Position{
		Key:                domain.PositionKey{Side: domain.SideBuy},
		Size:               fixedpoint.FromInt64(1000),
		EntryPrice:         fixedpoint.FromFloat64(0.5),
		AccumulatedFunding: fixedpoint.FromInt64(-5),
		RealizedPnL:        fixedpoint.FromInt64(0),
	}
	result, err := Close(pos, fixedpoint.FromFloat64(0.55), 28)
	require.NoError(t, err)
	// gross = 0.05*1000 = 50; + funding(-5) = 45; fee = 1000*0.0028 = 2.8; pnl = 42.2
	assert.InDelta(t, 42.2, result.PnL.Float64(), 1e-6)
}

func TestEvaluateRollOutsideWindow(t *testing.T) {
	pos := &domain.Position{Roll: &domain.RollConfig{Enabled: true, RollBeforeExpiry: 10, RollsRemaining: 1}}
	d := EvaluateRoll(pos, 1000, 500, 0, 0)
	assert.False(t, d.ShouldRoll)
}

func TestEvaluateRollEligible(t *testing.T) {
	pos := &domain.Position{Roll: &domain.RollConfig{
		Enabled: true, RollBeforeExpiry: 100, RollsRemaining: 1,
		MaxRollSlippageBps: 50, MaxRollFeeBps: 30,
	}}
	d := EvaluateRoll(pos, 1050, 1000, 10, 10)
	assert.True(t, d.ShouldRoll)
}
