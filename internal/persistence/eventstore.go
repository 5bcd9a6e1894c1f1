package persistence

import (
	"context"
	"time"
)

// EventRecord is the persisted projection of a ledger.Event — Data is
// the JSON-marshaled event payload, kept opaque to the store itself so
// adding a new EventKind never requires a schema migration.
type EventRecord struct {
	Seq uint64 `json:"seq" db:"seq"`
	Slot uint64 `json:"slot" db:"slot"`
	Kind string `json:"kind" db:"kind"`
	Data []byte `json:"data" db:"data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EventStore persists the append-only egress log so a
// restarted core (or an external read-replica) can resume from the
// last durable sequence number instead of the in-memory log alone.
type EventStore interface {
	// Append writes one event record. Seq is assigned by the caller
	// (the in-memory EventLog), not the store — the store only
	// rejects a seq it has already seen.
	Append(ctx context.Context, rec EventRecord) error

	// AppendBatch persists multiple records atomically, mirroring a
	// single RunStep's worth of events as one transaction.
	AppendBatch(ctx context.Context, recs []EventRecord) error

	// Since returns every record with Seq > afterSeq, in order,
	// bounded by limit — the durable counterpart of EventLog.Since.
	Since(ctx context.Context, afterSeq uint64, limit int) ([]EventRecord, error)

	// LatestSeq returns the highest persisted sequence number, or 0
	// if the store is empty — used on startup to resume EventLog.seq.
	LatestSeq(ctx context.Context) (uint64, error)
}
