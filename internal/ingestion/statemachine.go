package ingestion

import (
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// maxBatchSize is the ingestion batch ceiling.
const maxBatchSize = 1000

// backoffMultiplierSeconds scales the exponential backoff delay:
// 10·2^error_count seconds.
const backoffMultiplierSeconds = 10

// State is the per-protocol ingestion cursor: error/backoff tracking
// plus cumulative counters.
type State struct {
	ErrorCount int
	BackoffUntil time.Time
	LastSuccessfulSlot uint64
	TotalIngested uint64
}

// InBackoff reports whether ingestion must refuse further batches.
func (s *State) InBackoff(now time.Time) bool {
	return now.Before(s.BackoffUntil)
}

// HandleError increments the error counter and sets BackoffUntil to
// now + 10·2^error_count seconds.
func (s *State) HandleError(now time.Time) {
	s.ErrorCount++
	backoffSeconds := backoffMultiplierSeconds << uint(s.ErrorCount)
	s.BackoffUntil = now.Add(time.Duration(backoffSeconds) * time.Second)
}

func (s *State) resetOnSuccess(currentSlot uint64, accepted int) {
	s.ErrorCount = 0
	s.BackoffUntil = time.Time{}
	s.LastSuccessfulSlot = currentSlot
	s.TotalIngested += uint64(accepted)
}

// Store is the mutable target of an ingestion batch apply: the market
// and verse tables owned by the core.
type Store struct {
	Markets map[domain.MarketID]*domain.Market
	Verses map[string]*domain.Verse
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		Markets: make(map[domain.MarketID]*domain.Market),
		Verses: make(map[string]*domain.Verse),
	}
}

// Classifier is the verse-classification function — injected so the
// taxonomy stays implementation-defined configuration rather than a
// hardcoded table.
type Classifier func(title string) string

// IngestBatch validates every snapshot, then atomically applies the
// batch: either every snapshot's update lands and verse aggregates are
// recomputed, or the first validation failure aborts the whole batch
// with no mutation and engages backoff. Resolved markets are skipped
// during aggregate recomputation but still validated for shape.
func IngestBatch(state *State, store *Store, snapshots []Snapshot, classify Classifier, now time.Time, currentSlot uint64) (accepted int, err error) {
	if state.InBackoff(now) {
		return 0, domain.ErrBackoffActive
	}
	if len(snapshots) > maxBatchSize {
		return 0, domain.ErrBatchTooLarge
	}

	for _, snap := range snapshots {
		if err := ValidateSnapshot(snap, now); err != nil {
			state.HandleError(now)
			return 0, err
		}
	}

	touchedVerses := make(map[string]struct{})
	for _, snap := range snapshots {
		if snap.Resolved {
			if m, ok := store.Markets[snap.MarketID]; ok {
				m.Resolution = domain.ResolutionResolved
				m.ResolvedOutcome = snap.ResolvedOutcome
				m.LastUpdateSlot = currentSlot
			}
			continue
		}

		market, ok := store.Markets[snap.MarketID]
		if !ok {
			market = &domain.Market{ID: snap.MarketID, CreatedAtSlot: currentSlot}
			store.Markets[snap.MarketID] = market
		}
		market.Title = snap.Title
		market.OutcomeLabels = snap.OutcomeLabels
		market.OutcomePrices = snap.OutcomePrices
		market.Volume24h = snap.Volume24h
		market.LiquidityDepth = snap.LiquidityDepth
		market.LastUpdateSlot = currentSlot

		verseID := classify(snap.Title)
		market.VerseID = verseID
		touchedVerses[verseID] = struct{}{}
		accepted++
	}

	for verseID := range touchedVerses {
		if err := recomputeVerse(store, verseID, currentSlot); err != nil {
			return 0, err
		}
	}

	state.resetOnSuccess(currentSlot, accepted)
	return accepted, nil
}

// recomputeVerse rebuilds OI (volume sum) and derived probability
// (volume-weighted average of first-outcome price) over every
// non-resolved member market.
func recomputeVerse(store *Store, verseID string, currentSlot uint64) error {
	totalOI := fixedpoint.FromInt64(0)
	weightedProb := fixedpoint.FromInt64(0)

	for _, m := range store.Markets {
		if m.VerseID != verseID || m.Resolution == domain.ResolutionResolved {
			continue
		}
		var err error
		totalOI, err = totalOI.Add(m.Volume24h)
		if err != nil {
			return err
		}
		if len(m.OutcomePrices) == 0 {
			continue
		}
		contribution, err := m.OutcomePrices[0].Mul(m.Volume24h)
		if err != nil {
			return err
		}
		weightedProb, err = weightedProb.Add(contribution)
		if err != nil {
			return err
		}
	}

	derived := fixedpoint.FromInt64(0)
	if !totalOI.IsZero() {
		var err error
		derived, err = weightedProb.Div(totalOI)
		if err != nil {
			return err
		}
	}

	verse, ok := store.Verses[verseID]
	if !ok {
		verse = &domain.Verse{ID: verseID}
		store.Verses[verseID] = verse
	}
	verse.TotalOI = totalOI
	verse.DerivedProbability = derived
	verse.LastUpdateSlot = currentSlot
	return nil
}
