package synthetic

import (
	"testing"
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkWrapper(minSources int, weights ...float64) *domain.SyntheticWrapper {
	w := make([]fixedpoint.Q64, len(weights))
	for i, f := range weights {
		w[i] = fixedpoint.FromFloat64(f)
	}
	return &domain.SyntheticWrapper{Weights: w, MinSources: minSources, Status: domain.WrapperActive}
}

func TestDeriveWeightedAverage(t *testing.T) {
	now := time.Now()
	wrapper := mkWrapper(2, 0.5, 0.5)
	inputs := []SourceInput{
		{Probability: fixedpoint.FromFloat64(0.60), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: true},
		{Probability: fixedpoint.FromFloat64(0.40), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: true},
	}
	res, err := Derive(wrapper, inputs, now)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.DerivedProbability.Float64(), 0.01)
	assert.Equal(t, 2, res.LiveSourceCount)
	assert.Equal(t, domain.WrapperActive, res.NewStatus)
}

func TestDerivePausesBelowMinSources(t *testing.T) {
	now := time.Now()
	wrapper := mkWrapper(2, 0.5, 0.5)
	inputs := []SourceInput{
		{Probability: fixedpoint.FromFloat64(0.6), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: true},
		{Probability: fixedpoint.FromFloat64(0.4), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: false},
	}
	res, err := Derive(wrapper, inputs, now)
	require.NoError(t, err)
	assert.Equal(t, domain.WrapperPaused, res.NewStatus)
	assert.Equal(t, 1, res.LiveSourceCount)
}

func TestDeriveStaleSourceLosesConfidence(t *testing.T) {
	now := time.Now()
	wrapper := mkWrapper(2, 0.5, 0.5)
	inputs := []SourceInput{
		{Probability: fixedpoint.FromFloat64(0.9), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now.Add(-10 * 24 * time.Hour), Live: true},
		{Probability: fixedpoint.FromFloat64(0.5), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: true},
	}
	res, err := Derive(wrapper, inputs, now)
	require.NoError(t, err)
	// stale source (age > 7d recency floor of 0) contributes ~0 weight,
	// so derived should track the fresh source closely.
	assert.InDelta(t, 0.5, res.DerivedProbability.Float64(), 0.02)
}

func TestDivergenceFlagged(t *testing.T) {
	now := time.Now()
	wrapper := mkWrapper(2, 0.5, 0.5)
	inputs := []SourceInput{
		{Probability: fixedpoint.FromFloat64(0.70), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: true},
		{Probability: fixedpoint.FromFloat64(0.50), Volume7d: fixedpoint.FromInt64(1000), LiquidityDepth: fixedpoint.FromInt64(1000), LastTradeTime: now, Live: true},
	}
	res, err := Derive(wrapper, inputs, now)
	require.NoError(t, err)
	flaggedCount := 0
	for _, d := range res.Divergences {
		if d.Flagged {
			flaggedCount++
		}
	}
	// equal confidence puts the composite at 0.60, so both sources sit
	// 0.10 away, past the 5% threshold
	assert.Equal(t, 2, flaggedCount)
}

func TestAggregateMedian(t *testing.T) {
	probs := []fixedpoint.Q64{fixedpoint.FromFloat64(0.3), fixedpoint.FromFloat64(0.5), fixedpoint.FromFloat64(0.9)}
	m, err := Aggregate(StrategyMedian, probs, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Float64(), 1e-9)
}

func TestAggregateBestPrice(t *testing.T) {
	probs := []fixedpoint.Q64{fixedpoint.FromFloat64(0.3), fixedpoint.FromFloat64(0.7)}
	weights := []fixedpoint.Q64{fixedpoint.FromFloat64(1), fixedpoint.FromFloat64(5)}
	bp, err := Aggregate(StrategyBestPrice, probs, weights)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, bp.Float64(), 1e-9)
}

func TestAggregateEmptyRejected(t *testing.T) {
	_, err := Aggregate(StrategyMedian, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
