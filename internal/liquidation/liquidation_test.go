package liquidation

import (
	"testing"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthFactorBelowOneIsLiquidatable(t *testing.T) {
	pos := &domain.Position{
		Size:       fixedpoint.FromInt64(1000),
		Leverage:   fixedpoint.FromInt64(10), // maintenance ratio = 10%
		Collateral: fixedpoint.FromInt64(50), // required ~100
	}
	liquidatable, err := IsLiquidatable(pos)
	require.NoError(t, err)
	assert.True(t, liquidatable)
}

func TestHealthFactorAboveOneNotLiquidatable(t *testing.T) {
	pos := &domain.Position{
		Size:       fixedpoint.FromInt64(1000),
		Leverage:   fixedpoint.FromInt64(10),
		Collateral: fixedpoint.FromInt64(200),
	}
	liquidatable, err := IsLiquidatable(pos)
	require.NoError(t, err)
	assert.False(t, liquidatable)
}

func TestCascadeGateCapsPerSlot(t *testing.T) {
	gate := &CascadeGate{}
	ok := 0
	for i := 0; i < maxLiquidationsPerSlot+5; i++ {
		if gate.TryInitiate(1) {
			ok++
		}
	}
	assert.Equal(t, maxLiquidationsPerSlot, ok)
}

func TestCascadeGateResetsOnNewSlot(t *testing.T) {
	gate := &CascadeGate{}
	for i := 0; i < maxLiquidationsPerSlot; i++ {
		require.True(t, gate.TryInitiate(1))
	}
	assert.False(t, gate.TryInitiate(1))
	assert.True(t, gate.TryInitiate(2))
}

func TestCascadeGateEmergencyBlocksAll(t *testing.T) {
	gate := &CascadeGate{}
	gate.SetEmergencyPause(true)
	assert.False(t, gate.TryInitiate(1))
}

func TestWaterfallBoundedByCloseFactor(t *testing.T) {
	result, err := Waterfall(fixedpoint.FromInt64(1000), fixedpoint.FromInt64(10000), fixedpoint.FromFloat64(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 500.0, result.DebtRepaid.Float64(), 1e-6) // 50% close factor
	assert.True(t, result.BorrowerResidual.Sign() >= 0)
}

func TestAuctionRejectsBidBelowReserve(t *testing.T) {
	a := NewAuction(fixedpoint.FromInt64(1000), 0)
	err := a.PlaceBid(Bid{Bidder: "x", Amount: fixedpoint.FromInt64(900), Slot: 1})
	assert.ErrorIs(t, err, domain.ErrBidTooLow)
}

func TestAuctionExtendsNearEnd(t *testing.T) {
	a := NewAuction(fixedpoint.FromInt64(1000), 0)
	originalEnd := a.EndSlot
	err := a.PlaceBid(Bid{Bidder: "x", Amount: fixedpoint.FromInt64(1100), Slot: originalEnd - 5})
	require.NoError(t, err)
	assert.Equal(t, originalEnd+extensionAmountSlots, a.EndSlot)
}

func TestAuctionFinalizeFailsWithNoBids(t *testing.T) {
	a := NewAuction(fixedpoint.FromInt64(1000), 0)
	err := a.Finalize(a.EndSlot)
	require.NoError(t, err)
	assert.Equal(t, AuctionFailed, a.Status)
}

func TestAuctionFinalizeSucceedsWithBid(t *testing.T) {
	a := NewAuction(fixedpoint.FromInt64(1000), 0)
	require.NoError(t, a.PlaceBid(Bid{Bidder: "x", Amount: fixedpoint.FromInt64(1100), Slot: 5}))
	err := a.Finalize(a.EndSlot)
	require.NoError(t, err)
	assert.Equal(t, AuctionFinalized, a.Status)
}
