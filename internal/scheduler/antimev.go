package scheduler

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// sandwichWindowSlots is W, the lookback window for opposite-side
// same-market trades considered when scoring a candidate sandwich.
const sandwichWindowSlots = 100

// sizeRatioLow/High bound the "comparable size" heuristic: a
// candidate front-run/back-run pair is flagged only if the counter
// trade's size is within [0.5x, 2x] of the pending order's size —
// a lone large resting order is not itself evidence of a sandwich.
var (
	sizeRatioLow  = fixedpoint.FromFloat64(0.5)
	sizeRatioHigh = fixedpoint.FromFloat64(2.0)
)

// RecentTrade is one settled trade retained for sandwich-pattern
// lookback.
type RecentTrade struct {
	Caller   string
	Market   domain.MarketID
	Side     domain.Side
	Amount   fixedpoint.Q64
	Slot     uint64
}

// IsSandwich reports whether order is the back-run leg of a sandwich:
// some other caller traded the opposite side of the same market
// within sandwichWindowSlots, at a comparable size, immediately before
// order's submission slot.
func IsSandwich(order *domain.Order, recent []RecentTrade) (bool, error) {
	if order.Target.MarketID == nil {
		return false, nil
	}
	market := *order.Target.MarketID
	oppositeSide := domain.SideSell
	if order.Side == domain.SideSell {
		oppositeSide = domain.SideBuy
	}

	for _, rt := range recent {
		if rt.Caller == order.Owner {
			continue
		}
		if rt.Market != market || rt.Side != oppositeSide {
			continue
		}
		if order.SubmissionSlot < rt.Slot || order.SubmissionSlot-rt.Slot > sandwichWindowSlots {
			continue
		}
		ratio, err := rt.Amount.Div(order.Amount)
		if err != nil {
			continue // zero-size order: not a meaningful comparison, not flagged
		}
		if ratio.Cmp(sizeRatioLow) >= 0 && ratio.Cmp(sizeRatioHigh) <= 0 {
			return true, nil
		}
	}
	return false, nil
}

// FilterSandwiches partitions a priority-sorted batch into orders that
// pass anti-MEV screening and orders that must be rejected
// (transitioned to Cancelled by the caller).
func FilterSandwiches(orders []*domain.Order, recent []RecentTrade) (safe, rejected []*domain.Order, err error) {
	for _, o := range orders {
		isSandwich, serr := IsSandwich(o, recent)
		if serr != nil {
			return nil, nil, serr
		}
		if isSandwich {
			rejected = append(rejected, o)
			continue
		}
		safe = append(safe, o)
	}
	return safe, rejected, nil
}
