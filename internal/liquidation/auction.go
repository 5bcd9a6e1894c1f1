package liquidation

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

const (
	auctionDurationSlots = 432
	extensionWindowSlots = 10
	extensionAmountSlots = 10
)

// AuctionStatus is the lifecycle of a liquidation auction.
type AuctionStatus int

const (
	AuctionOpen AuctionStatus = iota
	AuctionFinalized
	AuctionFailed
)

// Bid is one bid placed against an auction.
type Bid struct {
	Bidder string
	Amount fixedpoint.Q64
	Slot uint64
}

// Auction is a Dutch-style liquidation auction whose reserve price
// equals the outstanding debt.
type Auction struct {
	ReservePrice fixedpoint.Q64
	StartSlot uint64
	EndSlot uint64
	BestBid *Bid
	Status AuctionStatus
}

// NewAuction opens an auction with reserve = debt and the default
// 432-slot duration.
func NewAuction(debt fixedpoint.Q64, startSlot uint64) *Auction {
	return &Auction{
		ReservePrice: debt,
		StartSlot: startSlot,
		EndSlot: startSlot + auctionDurationSlots,
		Status: AuctionOpen,
	}
}

// PlaceBid accepts a bid that strictly beats the current best (or the
// reserve, if no bid yet placed). A bid within extensionWindowSlots of
// EndSlot extends EndSlot by extensionAmountSlots.
func (a *Auction) PlaceBid(bid Bid) error {
	if a.Status != AuctionOpen {
		return domain.ErrAuctionEnded
	}
	if bid.Slot > a.EndSlot {
		return domain.ErrAuctionEnded
	}

	floor := a.ReservePrice
	if a.BestBid != nil {
		floor = a.BestBid.Amount
	}
	if bid.Amount.Cmp(floor) <= 0 {
		return domain.ErrBidTooLow
	}

	a.BestBid = &bid
	if a.EndSlot-bid.Slot <= extensionWindowSlots {
		a.EndSlot += extensionAmountSlots
	}
	return nil
}

// Finalize closes the auction at currentSlot (which must be ≥ EndSlot):
// the highest bid wins, or the auction fails and the position remains
// for retry.
func (a *Auction) Finalize(currentSlot uint64) error {
	if currentSlot < a.EndSlot {
		return domain.ErrAuctionStillActive
	}
	if a.BestBid == nil {
		a.Status = AuctionFailed
		return nil
	}
	a.Status = AuctionFinalized
	return nil
}
