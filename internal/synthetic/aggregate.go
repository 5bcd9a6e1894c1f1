package synthetic

import (
	"sort"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// Strategy selects how a wrapper combines its source markets'
// probabilities into one composite. Weighted-average is the default;
// the others exist for wrappers that want a more conservative
// combination rule.
type Strategy int

const (
	StrategyWeightedAverage Strategy = iota
	StrategyMedian
	StrategyBestPrice
	StrategyConservative // source closest to 0.5, for risk-averse wrappers
)

// Aggregate recombines a set of live probabilities (already confidence
// weighted upstream via Derive) under the given strategy. weights and
// probs must be the same length and contain only live sources.
func Aggregate(strategy Strategy, probs, weights []fixedpoint.Q64) (fixedpoint.Q64, error) {
	if len(probs) == 0 {
		return fixedpoint.Q64{}, domain.ErrInvalidInput
	}
	switch strategy {
	case StrategyWeightedAverage:
		return weightedAverage(probs, weights)
	case StrategyMedian:
		return median(probs)
	case StrategyBestPrice:
		return bestPrice(probs, weights)
	case StrategyConservative:
		return conservative(probs)
	default:
		return fixedpoint.Q64{}, domain.ErrInvalidInput
	}
}

func weightedAverage(probs, weights []fixedpoint.Q64) (fixedpoint.Q64, error) {
	sum := fixedpoint.FromInt64(0)
	total := fixedpoint.FromInt64(0)
	for i := range probs {
		c, err := probs[i].Mul(weights[i])
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		sum, err = sum.Add(c)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		total, err = total.Add(weights[i])
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	}
	if total.IsZero() {
		return fixedpoint.Q64{}, domain.ErrDivisionByZero
	}
	return sum.Div(total)
}

func median(probs []fixedpoint.Q64) (fixedpoint.Q64, error) {
	sorted := make([]fixedpoint.Q64, len(probs))
	copy(sorted, probs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	sum, err := sorted[n/2-1].Add(sorted[n/2])
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return sum.Div(fixedpoint.FromInt64(2))
}

// bestPrice picks the probability from the source with the largest
// weight (deepest, most confident source), used when a wrapper wants
// to track its most liquid underlying rather than an average.
func bestPrice(probs, weights []fixedpoint.Q64) (fixedpoint.Q64, error) {
	best := 0
	for i := 1; i < len(weights); i++ {
		if weights[i].Cmp(weights[best]) > 0 {
			best = i
		}
	}
	return probs[best], nil
}

// conservative picks the source probability closest to 0.5 (the first
// such source on a tie).
func conservative(probs []fixedpoint.Q64) (fixedpoint.Q64, error) {
	half := fixedpoint.FromBps(5_000)
	best := probs[0]
	var bestGap fixedpoint.Q64
	for i, p := range probs {
		diff, err := p.Sub(half)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		if gap := diff.Abs(); i == 0 || gap.Cmp(bestGap) < 0 {
			best, bestGap = p, gap
		}
	}
	return best, nil
}

func equalWeights(n int) []fixedpoint.Q64 {
	w := make([]fixedpoint.Q64, n)
	each := fixedpoint.FromInt64(1)
	for i := range w {
		w[i] = each
	}
	return w
}
