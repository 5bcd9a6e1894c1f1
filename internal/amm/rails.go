package amm

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// RailsConfig configures the per-slot safety rails shared by all three
// kernels. The liquidity cap is a band rather than a fixed bps figure:
// this adopts an adaptive band between LiqCapLowBps and LiqCapHighBps.
type RailsConfig struct {
	PriceClampBps int64 // default 200 = 2%
	LiqCapLowBps int64 // default 200
	LiqCapHighBps int64 // default 800
}

// DefaultRailsConfig matches the configured defaults.
func DefaultRailsConfig() RailsConfig {
	return RailsConfig{PriceClampBps: 200, LiqCapLowBps: 200, LiqCapHighBps: 800}
}

// CheckPriceClamp rejects any single-order price move exceeding
// PriceClampBps in one slot, per outcome.
func (c RailsConfig) CheckPriceClamp(before, after []fixedpoint.Q64) error {
	clamp := fixedpoint.FromBps(c.PriceClampBps)
	for i := range before {
		delta, err := after[i].Sub(before[i])
		if err != nil {
			return err
		}
		if delta.Abs().Cmp(clamp) > 0 {
			return domain.ErrPriceClampExceeded
		}
	}
	return nil
}

// LiquidityCap returns the adaptive cap (bps of current liquidity)
// for the given recent-volume / liquidity ratio: higher ratios
// (more active markets) widen the cap toward LiqCapHighBps.
func (c RailsConfig) LiquidityCap(volumeToLiquidityRatio fixedpoint.Q64) int64 {
	ratio := volumeToLiquidityRatio.Float64()
	if ratio <= 0 {
		return c.LiqCapLowBps
	}
	if ratio >= 1 {
		return c.LiqCapHighBps
	}
	span := c.LiqCapHighBps - c.LiqCapLowBps
	return c.LiqCapLowBps + int64(float64(span)*ratio)
}

// CheckLiquidityCap rejects order notional exceeding the adaptive cap
// of current liquidity.
func (c RailsConfig) CheckLiquidityCap(notional, currentLiquidity, volumeToLiquidityRatio fixedpoint.Q64) error {
	capBps := c.LiquidityCap(volumeToLiquidityRatio)
	cap, err := currentLiquidity.Mul(fixedpoint.FromBps(capBps))
	if err != nil {
		return err
	}
	if notional.Cmp(cap) > 0 {
		return domain.ErrLiquidityCapExceeded
	}
	return nil
}
