// Package ingestion implements the market ingestion state machine:
// per-market validation, verse classification, atomic batch apply,
// exponential backoff on error, and paginated fetch scheduling.
package ingestion

import (
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// maxTitleLen is the title length ceiling.
const maxTitleLen = 1000

// maxSnapshotAge is how stale a snapshot's producer timestamp may be.
const maxSnapshotAge = 5 * time.Minute

// priceSumLowerBound / priceSumUpperBound bound the outcome price sum
// to [0.99, 1.01] to tolerate rounding noise from the source venue.
var (
	priceSumLowerBound = fixedpoint.FromBps(9900)
	priceSumUpperBound = fixedpoint.FromBps(10100)
)

// Snapshot is one externally-supplied market reading, pre-entity: the
// trusted external client component hands these to IngestBatch, which
// validates and applies them onto the domain.Market/domain.Verse store.
type Snapshot struct {
	MarketID domain.MarketID
	Title string
	OutcomeLabels []string
	OutcomePrices []fixedpoint.Q64
	Volume24h fixedpoint.Q64
	LiquidityDepth fixedpoint.Q64
	Resolved bool
	ResolvedOutcome int
	ProducerTimestamp time.Time
}

// ValidateSnapshot applies the per-market validation checks: title
// shape, outcome count, price-sum bounds and snapshot freshness.
// Resolved snapshots are exempt from the liquidity/price checks (they
// carry a final settlement, not a live quote) but still validated for
// shape.
func ValidateSnapshot(s Snapshot, now time.Time) error {
	if s.Title == "" || len(s.Title) > maxTitleLen {
		return domain.ErrInvalidInput
	}
	if len(s.OutcomeLabels) < 2 || len(s.OutcomeLabels) > 64 {
		return domain.ErrInvalidOutcome
	}
	if len(s.OutcomePrices) != len(s.OutcomeLabels) {
		return domain.ErrInvalidDistribution
	}
	if now.Sub(s.ProducerTimestamp) > maxSnapshotAge {
		return domain.ErrSnapshotStale
	}
	if s.Resolved {
		return nil
	}

	sum := fixedpoint.FromInt64(0)
	for _, p := range s.OutcomePrices {
		var err error
		sum, err = sum.Add(p)
		if err != nil {
			return err
		}
	}
	if sum.Cmp(priceSumLowerBound) < 0 || sum.Cmp(priceSumUpperBound) > 0 {
		return domain.ErrPriceSumOutOfRange
	}
	if s.LiquidityDepth.Cmp(fixedpoint.FromInt64(0)) <= 0 {
		return domain.ErrInvalidInput
	}
	return nil
}
