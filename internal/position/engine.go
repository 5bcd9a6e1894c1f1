// Package position implements the leveraged position lifecycle —
// open, modify, funding accrual, auto-roll and close.
package position

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

const (
	baseLmax = 100 // 100x base leverage cap
	maxOracleScalarBps = 10_00
	maintenanceBufferBps = 100 // 1%
)

var (
	lMaxBase = fixedpoint.FromInt64(baseLmax)
	lMaxHardCap = fixedpoint.FromInt64(baseLmax * 10) // base·10x ceiling on the combined product
)

// MaxLeverage returns the effective leverage cap after applying the
// oracle scalar (capped at 10x on the combined product).
func MaxLeverage(oracleScalar fixedpoint.Q64) fixedpoint.Q64 {
	scaled, err := lMaxBase.Mul(oracleScalar)
	if err != nil || scaled.Cmp(lMaxHardCap) > 0 {
		return lMaxHardCap
	}
	return scaled
}

// OpenParams bundles the inputs to Open.
type OpenParams struct {
	Key domain.PositionKey
	Notional fixedpoint.Q64
	Leverage fixedpoint.Q64
	Collateral fixedpoint.Q64
	EntryPrice fixedpoint.Q64
	OracleScalar fixedpoint.Q64
	CurrentSlot uint64
}

// Open validates and constructs a new leveraged Position: leverage
// within bounds, collateral covering notional/L plus the 1%
// maintenance buffer, and derives the liquidation price.
func Open(p OpenParams) (*domain.Position, error) {
	maxL := MaxLeverage(p.OracleScalar)
	if p.Leverage.Cmp(fixedpoint.FromInt64(0)) <= 0 || p.Leverage.Cmp(maxL) > 0 {
		return nil, domain.ErrLeverageOutOfBounds
	}

	requiredBase, err := p.Notional.Div(p.Leverage)
	if err != nil {
		return nil, err
	}
	buffer, err := p.Notional.Mul(fixedpoint.FromBps(maintenanceBufferBps))
	if err != nil {
		return nil, err
	}
	required, err := requiredBase.Add(buffer)
	if err != nil {
		return nil, err
	}
	if p.Collateral.Cmp(required) < 0 {
		return nil, domain.ErrInsufficientCollateral
	}

	liqPrice, err := liquidationPrice(p.EntryPrice, p.Leverage, p.Key.Side)
	if err != nil {
		return nil, err
	}

	return &domain.Position{
		Key: p.Key,
		Size: p.Notional,
		Collateral: p.Collateral,
		EntryPrice: p.EntryPrice,
		Leverage: p.Leverage,
		AccumulatedFunding: fixedpoint.FromInt64(0),
		RealizedPnL: fixedpoint.FromInt64(0),
		LiquidationPrice: liqPrice,
		OpenedAtSlot: p.CurrentSlot,
		LastFundingSlot: p.CurrentSlot,
	}, nil
}

// liquidationPrice = entry·(1 − 1/L + buffer) for long positions,
// mirrored (1 + 1/L − buffer) for short.
func liquidationPrice(entry, leverage fixedpoint.Q64, side domain.Side) (fixedpoint.Q64, error) {
	invL, err := fixedpoint.FromInt64(1).Div(leverage)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	buffer := fixedpoint.FromBps(maintenanceBufferBps)

	var factor fixedpoint.Q64
	if side == domain.SideBuy {
		tmp, err := fixedpoint.FromInt64(1).Sub(invL)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		factor, err = tmp.Add(buffer)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	} else {
		tmp, err := fixedpoint.FromInt64(1).Add(invL)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		factor, err = tmp.Sub(buffer)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	}
	return entry.Mul(factor)
}

// ModifyParams describes an in-place position modification.
type ModifyParams struct {
	NewSize *fixedpoint.Q64
	NewLeverage *fixedpoint.Q64
	AddCollateral *fixedpoint.Q64
	NewStopPrice *fixedpoint.Q64
	NewTakeProfit *fixedpoint.Q64
}

// Modify applies a size/leverage/collateral/stop-TP change, then
// recomputes the liquidation price and re-checks maintenance margin.
func Modify(pos *domain.Position, m ModifyParams, markPrice fixedpoint.Q64) error {
	if err := SettleFunding(pos); err != nil {
		return err
	}
	if m.NewSize != nil {
		pos.Size = *m.NewSize
	}
	if m.NewLeverage != nil {
		pos.Leverage = *m.NewLeverage
	}
	if m.AddCollateral != nil {
		sum, err := pos.Collateral.Add(*m.AddCollateral)
		if err != nil {
			return err
		}
		pos.Collateral = sum
	}
	if m.NewStopPrice != nil {
		pos.StopPrice = m.NewStopPrice
	}
	if m.NewTakeProfit != nil {
		pos.TakeProfitPrice = m.NewTakeProfit
	}

	liq, err := liquidationPrice(pos.EntryPrice, pos.Leverage, pos.Key.Side)
	if err != nil {
		return err
	}
	pos.LiquidationPrice = liq

	requiredBase, err := pos.Size.Div(pos.Leverage)
	if err != nil {
		return err
	}
	buffer, err := pos.Size.Mul(fixedpoint.FromBps(maintenanceBufferBps))
	if err != nil {
		return err
	}
	required, err := requiredBase.Add(buffer)
	if err != nil {
		return err
	}
	if pos.Collateral.Cmp(required) < 0 {
		return domain.ErrInsufficientCollateral
	}
	return nil
}

// CloseResult is the settlement outcome of closing a position.
type CloseResult struct {
	PnL fixedpoint.Q64
	FeePaid fixedpoint.Q64
}

// Close realizes P&L = (exit − entry)·notional·sign(side) + funding −
// fees, and settles any outstanding funding into RealizedPnL first.
func Close(pos *domain.Position, exitPrice fixedpoint.Q64, feeBps int64) (CloseResult, error) {
	diff, err := exitPrice.Sub(pos.EntryPrice)
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
	withFunding, err := gross.Add(pos.AccumulatedFunding)
	if err != nil {
		return CloseResult{}, err
	}
	fee, err := pos.Size.Mul(fixedpoint.FromBps(feeBps))
	if err != nil {
		return CloseResult{}, err
	}
	pnl, err := withFunding.Sub(fee)
	if err != nil {
		return CloseResult{}, err
	}

	pos.RealizedPnL, err = pos.RealizedPnL.Add(pnl)
	if err != nil {
		return CloseResult{}, err
	}
	pos.AccumulatedFunding = fixedpoint.FromInt64(0)
	return CloseResult{PnL: pnl, FeePaid: fee}, nil
}
