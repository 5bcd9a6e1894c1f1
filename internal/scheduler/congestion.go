package scheduler

import (
	"sort"

	"github.com/gary322/flashbets-ledger/internal/domain"
)

// congestionThreshold is the TPS/capacity ratio (as a percentage,
// 0-100) above which congestion mode engages.
const congestionThreshold = 80

// highPriorityReserveBps / fifoReserveBps are the 70/30 split of batch
// slots under congestion.
const (
	highPriorityReserveBps = 7000
	fifoReserveBps = 3000
)

// IsCongested reports whether observed TPS has reached the
// congestion threshold relative to capacity.
func IsCongested(observedTPS, capacityTPS float64) bool {
	if capacityTPS <= 0 {
		return false
	}
	return (observedTPS/capacityTPS)*100 >= congestionThreshold
}

// SelectCongested builds a batch under congestion mode: the top
// stake-weighted orders (caller-deduplicated) fill 70% of batchMax,
// then FIFO orders from callers not yet represented fill the
// remaining 30%. orders must already be sorted by descending score
// via SortByPriority.
func SelectCongested(orders []*domain.Order, batchMax int) []*domain.Order {
	if batchMax <= 0 {
		batchMax = defaultBatchMax
	}
	highSlots := (batchMax * highPriorityReserveBps) / 10_000
	fifoSlots := batchMax - highSlots

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
		if len(batch) >= highSlots {
			break
		}
		if seen[o.Owner] {
			continue
		}
		seen[o.Owner] = true
		batch = append(batch, o)
	}

	fifoCandidates := make([]*domain.Order, 0, len(pending))
	for _, o := range pending {
		if !seen[o.Owner] {
			fifoCandidates = append(fifoCandidates, o)
		}
	}
	// FIFO across callers not yet represented: arrival order, i.e.
	// submission slot ascending.
	sortBySubmission(fifoCandidates)

	for _, o := range fifoCandidates {
		if len(batch) >= highSlots+fifoSlots {
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

func sortBySubmission(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].SubmissionSlot < orders[j].SubmissionSlot
	})
}
