package chain

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// StepOpener opens one leveraged position for a chain step; callers
// wire this to position.Open plus the AMM kernel price lookup for the
// step's market, keeping this package decoupled from pricing.
type StepOpener func(step domain.ChainStep) (*domain.Position, error)

// StepCloser closes a previously opened position, used during unwind.
type StepCloser func(key domain.PositionKey) error

// ExecuteNext runs the chain's next unexecuted step if the chain's
// safety bounds permit it (position count, leverage, exposure), and
// appends the resulting position key to OpenedPositions in the order
// opened — the order unwind later reverses.
func ExecuteNext(c *domain.Chain, opener StepOpener, currentSlot uint64) error {
	if c.CurrentStepIndex >= len(c.Steps) {
		return domain.ErrChainComplete
	}
	step := c.Steps[c.CurrentStepIndex]

	if len(c.OpenedPositions) >= c.Safety.MaxPositions {
		return domain.ErrMaxPositionsExceeded
	}
	if step.Leverage.Cmp(c.Safety.MaxLeverage) > 0 {
		return domain.ErrLeverageOutOfBounds
	}

	exposure, err := aggregateExposure(c)
	if err != nil {
		return err
	}
	newExposure, err := exposure.Add(step.Notional)
	if err != nil {
		return err
	}
	if newExposure.Cmp(c.Safety.MaxExposure) > 0 {
		return domain.ErrExposureExceeded
	}

	pos, err := opener(step)
	if err != nil {
		return err
	}

	c.Steps[c.CurrentStepIndex].Executed = true
	c.Steps[c.CurrentStepIndex].OpenedPositionAt = len(c.OpenedPositions)
	c.OpenedPositions = append(c.OpenedPositions, pos.Key)
	c.CurrentStepIndex++
	if c.CurrentStepIndex >= len(c.Steps) {
		c.Status = domain.ChainSettled
	} else {
		c.Status = domain.ChainExecuting
	}
	return nil
}

func aggregateExposure(c *domain.Chain) (fixedpoint.Q64, error) {
	total := fixedpoint.FromInt64(0)
	for i := 0; i < c.CurrentStepIndex; i++ {
		var err error
		total, err = total.Add(c.Steps[i].Notional)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	}
	return total, nil
}

// Unwind closes every opened position in reverse order (last opened,
// first closed) when a step fails partway through execution, matching
// the unwind-in-reverse-order guarantee. It stops at the
// first closer error, leaving the chain in ChainUnwinding with the
// remaining positions still open for a retry.
func Unwind(c *domain.Chain, closer StepCloser) error {
	c.Status = domain.ChainUnwinding
	for i := len(c.OpenedPositions) - 1; i >= 0; i-- {
		key := c.OpenedPositions[i]
		if err := closer(key); err != nil {
			c.OpenedPositions = c.OpenedPositions[:i+1]
			return err
		}
		c.OpenedPositions = c.OpenedPositions[:i]
	}
	c.Status = domain.ChainStopped
	return nil
}

// CheckStopLossTakeProfit evaluates the chain's aggregate P&L against
// its safety bounds and transitions Status accordingly; callers invoke
// this once per step before ExecuteNext.
func CheckStopLossTakeProfit(c *domain.Chain) {
	pnlBps := bpsOf(c.AggregatePnL, c.InitialDeposit)
	if pnlBps <= -c.Safety.StopLossBps {
		c.Status = domain.ChainStopped
		return
	}
	if pnlBps >= c.Safety.TakeProfitBps {
		c.Status = domain.ChainTookProfit
	}
}

func bpsOf(value, base fixedpoint.Q64) int64 {
	if base.IsZero() {
		return 0
	}
	ratio, err := value.Div(base)
	if err != nil {
		return 0
	}
	return int64(ratio.Float64() * 10_000)
}

// CrossVerseIsolation verifies every step in a chain targets markets
// within the same verse as the chain's declared verse, rejecting
// chains that would let a step in one isolated universe affect
// state in another.
func CrossVerseIsolation(verseOf func(domain.MarketID) domain.ID128, chainVerse domain.ID128, steps []domain.ChainStep) error {
	for _, s := range steps {
		if verseOf(s.Market) != chainVerse {
			return domain.ErrCrossVerseNotAllowed
		}
	}
	return nil
}
