package router

import (
	"testing"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketID(b byte) domain.MarketID {
	var m domain.MarketID
	m[0] = b
	return m
}

// TestBundleNettingMatchesSpecScenario reproduces scenario 3:
// caller A buys 1000 of wrapper W, caller B sells 400 of the same
// wrapper (same weights) — net per-market buy should be 600·wᵢ.
func TestBundleNettingMatchesSpecScenario(t *testing.T) {
	m := marketID(1)
	weight := fixedpoint.FromFloat64(1.0) // single-source wrapper for this scenario

	buyNotional, err := fixedpoint.FromInt64(1000).Mul(weight)
	require.NoError(t, err)
	sellNotional, err := fixedpoint.FromInt64(400).Mul(weight)
	require.NoError(t, err)

	intents := []Intent{
		{Caller: "A", ChildMarkets: []domain.MarketID{m}, ChildNotional: []fixedpoint.Q64{buyNotional}, Side: domain.SideBuy},
		{Caller: "B", ChildMarkets: []domain.MarketID{m}, ChildNotional: []fixedpoint.Q64{sellNotional}, Side: domain.SideSell},
	}

	bundles := GroupBundles(intents)
	require.Len(t, bundles, 1, "overlapping intents must form one bundle")

	nets, err := Net(bundles[0])
	require.NoError(t, err)
	require.Len(t, nets, 1)
	assert.Equal(t, domain.SideBuy, nets[0].Side)
	assert.InDelta(t, 600.0, nets[0].Notional.Float64(), 1e-6)
	assert.Equal(t, 2, nets[0].DistinctCallers)
}

func TestComputeFeeAppliesBundleDiscountAndVolumeTier(t *testing.T) {
	notional := fixedpoint.FromInt64(600)

	solo, err := ComputeFee(notional, 1, fixedpoint.FromInt64(0))
	require.NoError(t, err)
	assert.Equal(t, int64(178), solo.EffectiveFeeBps)
	assert.False(t, solo.BundleDiscount)

	bundled, err := ComputeFee(notional, 2, fixedpoint.FromInt64(0))
	require.NoError(t, err)
	assert.True(t, bundled.BundleDiscount)
	assert.Less(t, bundled.EffectiveFeeBps, solo.EffectiveFeeBps)

	highVolume, err := ComputeFee(notional, 2, fixedpoint.FromInt64(tier3VolumeUSD))
	require.NoError(t, err)
	assert.Equal(t, int64(tier3DiscountBp), highVolume.VolumeTierBps)
	assert.Less(t, highVolume.EffectiveFeeBps, bundled.EffectiveFeeBps)
}

func TestRouteTruncatesOnCUBudget(t *testing.T) {
	m1, m2 := marketID(1), marketID(2)
	intents := []Intent{
		{Caller: "A", OrderID: domain.ID128{1}, ChildMarkets: []domain.MarketID{m1}, ChildNotional: []fixedpoint.Q64{fixedpoint.FromInt64(100)}, Side: domain.SideBuy},
		{Caller: "A", OrderID: domain.ID128{1}, ChildMarkets: []domain.MarketID{m2}, ChildNotional: []fixedpoint.Q64{fixedpoint.FromInt64(100)}, Side: domain.SideBuy},
	}
	always := func(NetOrder) error { return nil }

	receipts, err := Route(intents, nil, always, cuPerChildMarket) // budget for exactly one child
	require.NoError(t, err)
	// disjoint markets form two bundles, one receipt each; only the
	// bundle routed second runs out of budget
	require.Len(t, receipts, 2)
	truncated := 0
	for _, r := range receipts {
		if r.Truncated {
			truncated++
		}
	}
	assert.Equal(t, 1, truncated)
}

func TestRouteMarksFailedPriceCheck(t *testing.T) {
	m1 := marketID(1)
	intents := []Intent{
		{Caller: "A", OrderID: domain.ID128{1}, ChildMarkets: []domain.MarketID{m1}, ChildNotional: []fixedpoint.Q64{fixedpoint.FromInt64(100)}, Side: domain.SideBuy},
	}
	reject := func(NetOrder) error { return domain.ErrPriceClampExceeded }

	receipts, err := Route(intents, nil, reject, 10*cuPerChildMarket)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	require.Len(t, receipts[0].Children, 1)
	assert.Equal(t, SettlementFailed, receipts[0].Children[0].Status)
}
