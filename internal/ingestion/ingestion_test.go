package ingestion

import (
	"testing"
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkSnapshot(id byte, title string, p0, p1 float64, now time.Time) Snapshot {
	var mid domain.MarketID
	mid[0] = id
	return Snapshot{
		MarketID:          mid,
		Title:             title,
		OutcomeLabels:     []string{"Yes", "No"},
		OutcomePrices:     []fixedpoint.Q64{fixedpoint.FromFloat64(p0), fixedpoint.FromFloat64(p1)},
		Volume24h:         fixedpoint.FromInt64(1000),
		LiquidityDepth:    fixedpoint.FromInt64(500),
		ProducerTimestamp: now,
	}
}

func TestValidateSnapshotRejectsBadPriceSum(t *testing.T) {
	now := time.Now()
	snap := mkSnapshot(1, "Will BTC reach $100k?", 0.8, 0.4, now)
	assert.ErrorIs(t, ValidateSnapshot(snap, now), domain.ErrPriceSumOutOfRange)
}

func TestValidateSnapshotRejectsStale(t *testing.T) {
	now := time.Now()
	snap := mkSnapshot(1, "Will BTC reach $100k?", 0.6, 0.4, now.Add(-10*time.Minute))
	assert.ErrorIs(t, ValidateSnapshot(snap, now), domain.ErrSnapshotStale)
}

func TestValidateSnapshotRejectsEmptyTitle(t *testing.T) {
	now := time.Now()
	snap := mkSnapshot(1, "", 0.6, 0.4, now)
	assert.ErrorIs(t, ValidateSnapshot(snap, now), domain.ErrInvalidInput)
}

func TestIngestBatchAppliesAndClassifies(t *testing.T) {
	now := time.Now()
	state := &State{}
	store := NewStore()
	snapshots := []Snapshot{
		mkSnapshot(1, "Will BTC reach $100k?", 0.6, 0.4, now),
		mkSnapshot(2, "Will ETH flip BTC?", 0.1, 0.9, now),
	}
	classify := func(title string) string { return "crypto" }

	accepted, err := IngestBatch(state, store, snapshots, classify, now, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, uint64(100), state.LastSuccessfulSlot)
	assert.Equal(t, 0, state.ErrorCount)

	verse, ok := store.Verses["crypto"]
	require.True(t, ok)
	assert.InDelta(t, 2000.0, verse.TotalOI.Float64(), 1e-6)
}

func TestIngestBatchSkipsResolvedMarkets(t *testing.T) {
	now := time.Now()
	state := &State{}
	store := NewStore()
	var mid domain.MarketID
	mid[0] = 9
	store.Markets[mid] = &domain.Market{ID: mid, VerseID: "crypto"}

	resolved := mkSnapshot(9, "Will BTC reach $100k?", 0.6, 0.4, now)
	resolved.Resolved = true
	resolved.ResolvedOutcome = 0

	accepted, err := IngestBatch(state, store, []Snapshot{resolved}, func(string) string { return "crypto" }, now, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
	assert.Equal(t, domain.ResolutionResolved, store.Markets[mid].Resolution)
}

func TestIngestBatchEngagesBackoffOnValidationFailure(t *testing.T) {
	now := time.Now()
	state := &State{}
	store := NewStore()
	bad := mkSnapshot(1, "Bad market", 0.8, 0.5, now)

	_, err := IngestBatch(state, store, []Snapshot{bad}, func(string) string { return "crypto" }, now, 10)
	require.Error(t, err)
	assert.Equal(t, 1, state.ErrorCount)
	assert.True(t, state.InBackoff(now))
	assert.True(t, state.BackoffUntil.Sub(now) >= 20*time.Second)
}

func TestIngestBatchRefusesWhileInBackoff(t *testing.T) {
	now := time.Now()
	state := &State{BackoffUntil: now.Add(1 * time.Minute)}
	store := NewStore()
	_, err := IngestBatch(state, store, nil, func(string) string { return "x" }, now, 1)
	assert.ErrorIs(t, err, domain.ErrBackoffActive)
}

func TestIngestBatchRejectsOversizedBatch(t *testing.T) {
	now := time.Now()
	state := &State{}
	store := NewStore()
	snapshots := make([]Snapshot, maxBatchSize+1)
	for i := range snapshots {
		snapshots[i] = mkSnapshot(byte(i%255), "x", 0.5, 0.5, now)
	}
	_, err := IngestBatch(state, store, snapshots, func(string) string { return "x" }, now, 1)
	assert.ErrorIs(t, err, domain.ErrBatchTooLarge)
}

func TestPaginationCyclesAndResets(t *testing.T) {
	p := &Pagination{}
	start, end, done := p.NextRange()
	assert.Equal(t, 0, start)
	assert.Equal(t, BatchSize, end)
	assert.False(t, done)

	p.Offset = TotalMarkets
	_, _, done = p.NextRange()
	assert.True(t, done)
	assert.Equal(t, 0, p.Offset)
}

func TestPaginationEnforcesMinInterval(t *testing.T) {
	p := &Pagination{}
	assert.True(t, p.CanFetch(100))
	p.RecordFetch(100)
	assert.False(t, p.CanFetch(105))
	assert.True(t, p.CanFetch(108))
}
