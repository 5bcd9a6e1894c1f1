// Package synthetic derives a SyntheticWrapper's composite probability
// from its weighted set of source markets: a confidence-weighted
// average with per-source divergence flagging.
package synthetic

import (
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// historyWindowSlots is the 7-day price-history window in slots. No
// function in this package reads it: confidence takes the caller's
// Volume7d as given.
const historyWindowSlots = 7 * 24 * 3600 * 1000 / 400 // 1,512,000 slots at 400ms/slot

// divergenceThreshold flags any source whose probability gap to the
// derived composite exceeds 5%.
var divergenceThreshold = fixedpoint.FromBps(500)

// SourceInput is one source market's contribution to a derivation
// tick: its live probability, rolling volume/liquidity and recency.
type SourceInput struct {
	MarketID domain.MarketID
	Probability fixedpoint.Q64
	Volume7d fixedpoint.Q64
	LiquidityDepth fixedpoint.Q64
	LastTradeTime time.Time
	Live bool // false when the source market is not Open
}

// Divergence is one source's absolute gap to the derived composite.
type Divergence struct {
	MarketID domain.MarketID
	Gap fixedpoint.Q64
	Flagged bool
}

// Result is the outcome of a single derivation tick.
type Result struct {
	DerivedProbability fixedpoint.Q64
	Divergences []Divergence
	LiveSourceCount int
	NewStatus domain.WrapperStatus
}

// confidence computes c_i = sqrt(vol7d · depth) · recency(age): a
// liquidity-and-volume weight discounted by how stale the source's
// last trade is.
func confidence(in SourceInput, now time.Time) (fixedpoint.Q64, error) {
	product, err := in.Volume7d.Mul(in.LiquidityDepth)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	base, err := product.Sqrt()
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	ageSeconds := now.Sub(in.LastTradeTime).Seconds()
	if ageSeconds < 0 {
		ageSeconds = 0
	}
	ageDays := fixedpoint.FromFloat64(ageSeconds / 86400.0)
	sevenDays := fixedpoint.FromInt64(7)
	ratio, err := ageDays.Div(sevenDays)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	recency, err := fixedpoint.FromInt64(1).Sub(ratio)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	recency = recency.Max(fixedpoint.FromInt64(0))
	return base.Mul(recency)
}

// Derive computes the wrapper's new derived probability, divergence
// report, and whether it must transition to Paused because live
// sources dropped below wrapper.MinSources.
func Derive(wrapper *domain.SyntheticWrapper, inputs []SourceInput, now time.Time) (Result, error) {
	if len(inputs) != len(wrapper.Weights) {
		return Result{}, domain.ErrInvalidInput
	}

	liveCount := 0
	weightedSum := fixedpoint.FromInt64(0)
	totalWeight := fixedpoint.FromInt64(0)

	for i, in := range inputs {
		if !in.Live {
			continue
		}
		liveCount++

		c, err := confidence(in, now)
		if err != nil {
			return Result{}, err
		}
		weight, err := wrapper.Weights[i].Mul(c)
		if err != nil {
			return Result{}, err
		}
		contribution, err := in.Probability.Mul(weight)
		if err != nil {
			return Result{}, err
		}
		weightedSum, err = weightedSum.Add(contribution)
		if err != nil {
			return Result{}, err
		}
		totalWeight, err = totalWeight.Add(weight)
		if err != nil {
			return Result{}, err
		}
	}

	var derived fixedpoint.Q64
	if totalWeight.IsZero() {
		derived = fixedpoint.FromBps(5_000) // default 50%
	} else {
		var err error
		derived, err = weightedSum.Div(totalWeight)
		if err != nil {
			return Result{}, err
		}
	}

	divergences := make([]Divergence, 0, len(inputs))
	for _, in := range inputs {
		if !in.Live {
			continue
		}
		diff, err := in.Probability.Sub(derived)
		if err != nil {
			return Result{}, err
		}
		gap := diff.Abs()
		divergences = append(divergences, Divergence{
			MarketID: in.MarketID,
			Gap: gap,
			Flagged: gap.Cmp(divergenceThreshold) > 0,
		})
	}

	status := wrapper.Status
	if liveCount < wrapper.MinSources {
		status = domain.WrapperPaused
	} else if status == domain.WrapperPaused {
		status = domain.WrapperActive
	}

	return Result{
		DerivedProbability: derived,
		Divergences: divergences,
		LiveSourceCount: liveCount,
		NewStatus: status,
	}, nil
}
