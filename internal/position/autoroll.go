package position

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// RollDecision is the outcome of evaluating a position's auto-roll
// eligibility for the current slot.
type RollDecision struct {
	ShouldRoll bool
	Reason string
}

// EvaluateRoll checks the four gating conditions of : the
// position is within RollBeforeExpiry slots of the market's expiry,
// RollsRemaining > 0, estimated slippage ≤ MaxRollSlippageBps, and fee
// ≤ MaxRollFeeBps.
func EvaluateRoll(pos *domain.Position, expirySlot, currentSlot uint64, estSlippageBps, estFeeBps int64) RollDecision {
	if pos.Roll == nil || !pos.Roll.Enabled {
		return RollDecision{ShouldRoll: false, Reason: "auto-roll not configured"}
	}
	if pos.Roll.RollsRemaining <= 0 {
		return RollDecision{ShouldRoll: false, Reason: "no rolls remaining"}
	}
	if expirySlot < currentSlot || expirySlot-currentSlot > pos.Roll.RollBeforeExpiry {
		return RollDecision{ShouldRoll: false, Reason: "outside roll window"}
	}
	if estSlippageBps > pos.Roll.MaxRollSlippageBps {
		return RollDecision{ShouldRoll: false, Reason: "estimated slippage exceeds bound"}
	}
	if estFeeBps > pos.Roll.MaxRollFeeBps {
		return RollDecision{ShouldRoll: false, Reason: "estimated fee exceeds bound"}
	}
	return RollDecision{ShouldRoll: true}
}

// ExecuteRoll settles funding, realizes P&L at the current price, and
// reopens the position at that price for the next expiry, incrementing
// the roll counter. It never changes leverage or collateral.
func ExecuteRoll(pos *domain.Position, currentPrice fixedpoint.Q64, feeBps int64, currentSlot uint64) (CloseResult, error) {
	if err := SettleFunding(pos); err != nil {
		return CloseResult{}, err
	}

	diff, err := currentPrice.Sub(pos.EntryPrice)
	if err != nil {
		return CloseResult{}, err
	}
	if pos.Key.Side == domain.SideSell {
		diff, err = diff.Neg()
	}
	gross, err := diff.Mul(pos.Size)
	if err != nil {
		return CloseResult{}, err
	}
	fee, err := pos.Size.Mul(fixedpoint.FromBps(feeBps))
	if err != nil {
		return CloseResult{}, err
	}
	pnl, err := gross.Sub(fee)
	if err != nil {
		return CloseResult{}, err
	}
	pos.RealizedPnL, err = pos.RealizedPnL.Add(pnl)
	if err != nil {
		return CloseResult{}, err
	}

	pos.EntryPrice = currentPrice
	pos.OpenedAtSlot = currentSlot
	pos.LastFundingSlot = currentSlot
	liq, err := liquidationPrice(pos.EntryPrice, pos.Leverage, pos.Key.Side)
	if err != nil {
		return CloseResult{}, err
	}
	pos.LiquidationPrice = liq
	pos.Roll.RollsRemaining--

	return CloseResult{PnL: pnl, FeePaid: fee}, nil
}
