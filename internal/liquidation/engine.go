// Package liquidation implements the health-factor evaluation, cascade
// gatekeeping, Dutch-style auction and waterfall distribution of
//
package liquidation

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

const (
	maxLiquidationsPerSlot = 10
	closeFactorBps = 5000 // 50% max debt per event
	liquidationPenaltyBps = 1000 // 10% of collateral
	liquidatorBonusBps = 500 // 5% of seized collateral
	protocolFeeBps = 100 // 1% of debt
)

// MaintenanceRatio returns the maintenance margin ratio for a given
// leverage — higher leverage tightens the ratio.
func MaintenanceRatio(leverage fixedpoint.Q64) (fixedpoint.Q64, error) {
	return fixedpoint.FromInt64(1).Div(leverage)
}

// HealthFactor computes H = collateral / (notional · maintenance_ratio(L)).
func HealthFactor(pos *domain.Position) (fixedpoint.Q64, error) {
	ratio, err := MaintenanceRatio(pos.Leverage)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	denom, err := pos.Size.Mul(ratio)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	if denom.IsZero() {
		return fixedpoint.Q64{}, domain.ErrDivisionByZero
	}
	return pos.Collateral.Div(denom)
}

// IsLiquidatable reports H < 1.
func IsLiquidatable(pos *domain.Position) (bool, error) {
	h, err := HealthFactor(pos)
	if err != nil {
		return false, err
	}
	return h.Cmp(fixedpoint.FromInt64(1)) < 0, nil
}

// CascadeGate tracks the per-slot liquidation counter and caps
// initiation at maxLiquidationsPerSlot, resetting on slot advance.
type CascadeGate struct {
	slot uint64
	initiated int
	emergencyOn bool
}

// SetEmergencyPause blocks all liquidation initiation regardless of
// the cascade counter.
func (g *CascadeGate) SetEmergencyPause(on bool) {
	g.emergencyOn = on
}

// TryInitiate resets the counter on a new slot and reports whether a
// new liquidation may be initiated this slot.
func (g *CascadeGate) TryInitiate(currentSlot uint64) bool {
	if g.emergencyOn {
		return false
	}
	if currentSlot != g.slot {
		g.slot = currentSlot
		g.initiated = 0
	}
	if g.initiated >= maxLiquidationsPerSlot {
		return false
	}
	g.initiated++
	return true
}

// WaterfallResult is the distribution of one liquidation event's
// seized collateral and repaid debt.
type WaterfallResult struct {
	DebtRepaid fixedpoint.Q64
	CollateralSeized fixedpoint.Q64
	LiquidatorPayout fixedpoint.Q64
	ProtocolFee fixedpoint.Q64
	BorrowerResidual fixedpoint.Q64
}

// Waterfall applies the close-factor-bounded debt repayment (≤50% of
// outstanding debt), seizes collateral at the penalty rate, pays the
// liquidator their bonus, takes the 1% protocol fee, and returns the
// borrower's residual.
func Waterfall(debt, collateral, oraclePrice fixedpoint.Q64) (WaterfallResult, error) {
	maxDebt, err := debt.Mul(fixedpoint.FromBps(closeFactorBps))
	if err != nil {
		return WaterfallResult{}, err
	}
	debtRepaid := maxDebt

	if oraclePrice.IsZero() {
		return WaterfallResult{}, domain.ErrDivisionByZero
	}
	baseCollateral, err := debtRepaid.Div(oraclePrice)
	if err != nil {
		return WaterfallResult{}, err
	}
	penaltyFactor, err := fixedpoint.FromInt64(1).Add(fixedpoint.FromBps(liquidationPenaltyBps))
	if err != nil {
		return WaterfallResult{}, err
	}
	collateralSeized, err := baseCollateral.Mul(penaltyFactor)
	if err != nil {
		return WaterfallResult{}, err
	}
	if collateralSeized.Cmp(collateral) > 0 {
		collateralSeized = collateral
	}

	liquidatorBonus, err := collateralSeized.Mul(fixedpoint.FromBps(liquidatorBonusBps))
	if err != nil {
		return WaterfallResult{}, err
	}
	protocolFee, err := debtRepaid.Mul(fixedpoint.FromBps(protocolFeeBps))
	if err != nil {
		return WaterfallResult{}, err
	}

	liquidatorPayout, err := collateralSeized.Add(liquidatorBonus)
	if err != nil {
		return WaterfallResult{}, err
	}

	spent, err := liquidatorPayout.Add(protocolFee)
	if err != nil {
		return WaterfallResult{}, err
	}
	residual, err := collateral.Sub(spent)
	if err != nil {
		return WaterfallResult{}, err
	}
	if residual.Sign() < 0 {
		residual = fixedpoint.FromInt64(0)
	}

	return WaterfallResult{
		DebtRepaid: debtRepaid,
		CollateralSeized: collateralSeized,
		LiquidatorPayout: liquidatorPayout,
		ProtocolFee: protocolFee,
		BorrowerResidual: residual,
	}, nil
}
