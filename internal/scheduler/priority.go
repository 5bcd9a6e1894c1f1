// Package scheduler implements the batch-oriented priority queue,
// anti-MEV sandwich detection, congestion-mode fairness split, and
// order expiry for the per-slot order batch.
package scheduler

import (
	"sort"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// Weights are the score coefficients: α on stake snapshot, β on depth
// boost (both additive), γ on age penalty (subtractive).
type Weights struct {
	Alpha fixedpoint.Q64 // stake_snapshot weight
	Beta fixedpoint.Q64 // depth_boost weight
	Gamma fixedpoint.Q64 // age_penalty weight
}

// DefaultWeights returns the out-of-the-box priority weights: equal
// unit weights for stake, depth and age; operators tune via config,
// not via code.
func DefaultWeights() Weights {
	one := fixedpoint.FromInt64(1)
	return Weights{Alpha: one, Beta: one, Gamma: one}
}

const (
	defaultBatchMax = 50
	defaultCUMax = 1_400_000
	expirySlots = 1000
)

// Score computes α·stake_snapshot + β·depth_boost − γ·age_penalty.
func Score(w Weights, stakeSnapshot, depthBoost fixedpoint.Q64, currentSlot, submissionSlot uint64) (fixedpoint.Q64, error) {
	age := fixedpoint.FromInt64(int64(currentSlot - submissionSlot))

	stakeTerm, err := w.Alpha.Mul(stakeSnapshot)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	depthTerm, err := w.Beta.Mul(depthBoost)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	ageTerm, err := w.Gamma.Mul(age)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	sum, err := stakeTerm.Add(depthTerm)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return sum.Sub(ageTerm)
}

// ApplyExpiry transitions any order older than expirySlots to Expired
// in place, returning the count transitioned.
func ApplyExpiry(orders []*domain.Order, currentSlot uint64) int {
	count := 0
	for _, o := range orders {
		if o.Status != domain.OrderPending {
			continue
		}
		if currentSlot-o.SubmissionSlot > expirySlots {
			o.Status = domain.OrderExpired
			count++
		}
	}
	return count
}

// SortByPriority orders pending orders by descending score, stable by
// submission slot (FIFO) on ties.
func SortByPriority(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].PriorityScore.Cmp(orders[j].PriorityScore) != 0 {
			return orders[i].PriorityScore.Cmp(orders[j].PriorityScore) > 0
		}
		return orders[i].SubmissionSlot < orders[j].SubmissionSlot
	})
}

// SelectBatch returns the top batchMax pending orders by priority,
// enforcing the one-order-per-caller-per-batch fairness rule.
func SelectBatch(orders []*domain.Order, batchMax int) []*domain.Order {
	if batchMax <= 0 {
		batchMax = defaultBatchMax
	}
	pending := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == domain.OrderPending {
			pending = append(pending, o)
		}
	}
	SortByPriority(pending)

	seen := make(map[string]bool)
	batch := make([]*domain.Order, 0, batchMax)
	for _, o := range pending {
		if len(batch) >= batchMax {
			break
		}
		if seen[o.Owner] {
			continue
		}
		seen[o.Owner] = true
		batch = append(batch, o)
	}
	return batch
}
