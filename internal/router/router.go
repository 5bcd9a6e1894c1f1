package router

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// cuPerChildMarket is the approximate compute-unit cost of pricing and
// settling one net child order against its AMM kernel.
const cuPerChildMarket = 3_000

// SettlementStatus is the terminal state of one child order in a
// receipt.
type SettlementStatus int

const (
	SettlementComplete SettlementStatus = iota
	SettlementPartiallyFilled
	SettlementFailed
)

// ExecutionReceipt links a routed intent to its per-market child
// orders and their settlement status.
type ExecutionReceipt struct {
	WrapperID domain.ID128
	OrderID domain.ID128
	Children []ChildExecution
	Truncated bool // true if the bundle hit the CU envelope before full settlement
}

// ChildExecution is one settled (or rejected) net order within a
// bundle, with its apportioned fee.
type ChildExecution struct {
	MarketID domain.MarketID
	Side domain.Side
	Notional fixedpoint.Q64
	Fee FeeBreakdown
	Status SettlementStatus
}

// PriceCheck prices a net order against its kernel and applies the
// rails (price clamp / liquidity cap). Callers supply this as a
// closure so the router stays decoupled from the amm package.
type PriceCheck func(order NetOrder) error

// Route executes steps 1-5 of for one batch of intents
// sharing a block envelope: group into bundles, net per market, price
// + rail-check each net order, compute fees, and produce receipts. The
// block's CU budget truncates a bundle once the units used so far
// across all bundles of this call would exceed cuBudget; truncated
// children are marked PartiallyFilled with no fee charged.
func Route(intents []Intent, dailyVolumeByCaller map[string]fixedpoint.Q64, check PriceCheck, cuBudget int64) ([]ExecutionReceipt, error) {
	bundles := GroupBundles(intents)
	receipts := make([]ExecutionReceipt, 0, len(intents))
	var usedCU int64

	for _, bundle := range bundles {
		netOrders, err := Net(bundle)
		if err != nil {
			return nil, err
		}

		byOrder := make(map[domain.ID128][]ChildExecution)
		truncatedByOrder := make(map[domain.ID128]bool)

		for _, no := range netOrders {
			owningIntent := firstIntentTouching(bundle, no.MarketID)
			if owningIntent == nil {
				continue
			}
			if usedCU+cuPerChildMarket > cuBudget {
				truncatedByOrder[owningIntent.OrderID] = true
				byOrder[owningIntent.OrderID] = append(byOrder[owningIntent.OrderID], ChildExecution{
					MarketID: no.MarketID, Side: no.Side, Notional: no.Notional, Status: SettlementPartiallyFilled,
				})
				continue
			}
			usedCU += cuPerChildMarket

			status := SettlementComplete
			if err := check(no); err != nil {
				status = SettlementFailed
			}

			vol := dailyVolumeByCaller[owningIntent.Caller]
			fee, err := ComputeFee(no.Notional, no.DistinctCallers, vol)
			if err != nil {
				return nil, err
			}
			byOrder[owningIntent.OrderID] = append(byOrder[owningIntent.OrderID], ChildExecution{
				MarketID: no.MarketID, Side: no.Side, Notional: no.Notional, Fee: fee, Status: status,
			})
		}

		for _, intent := range bundle.Intents {
			children, ok := byOrder[intent.OrderID]
			if !ok {
				continue
			}
			receipts = append(receipts, ExecutionReceipt{
				WrapperID: intent.WrapperID,
				OrderID: intent.OrderID,
				Children: children,
				Truncated: truncatedByOrder[intent.OrderID],
			})
		}
	}

	return receipts, nil
}

func firstIntentTouching(bundle Bundle, market domain.MarketID) *Intent {
	for i := range bundle.Intents {
		for _, m := range bundle.Intents[i].ChildMarkets {
			if m == market {
				return &bundle.Intents[i]
			}
		}
	}
	return nil
}
