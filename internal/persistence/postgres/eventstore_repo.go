package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gary322/flashbets-ledger/internal/persistence"
)

// eventStoreRepo implements persistence.EventStore for PostgreSQL,
// following the prepared-statement-in-a-transaction pattern of
// tradesRepo.InsertBatch.
type eventStoreRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewEventStoreRepo builds a PostgreSQL-backed EventStore.
func NewEventStoreRepo(db *sqlx.DB, timeout time.Duration) persistence.EventStore {
	return &eventStoreRepo{db: db, timeout: timeout}
}

func (r *eventStoreRepo) Append(ctx context.Context, rec persistence.EventRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO ledger_events (seq, slot, kind, data)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, rec.Seq, rec.Slot, rec.Kind, rec.Data)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate event seq %d: %w", rec.Seq, err)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *eventStoreRepo) AppendBatch(ctx context.Context, recs []persistence.EventRecord) error {
	if len(recs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(recs)/100+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_events (seq, slot, kind, data)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Seq, rec.Slot, rec.Kind, rec.Data); err != nil {
			return fmt.Errorf("failed to insert event seq %d in batch: %w", rec.Seq, err)
		}
	}

	return tx.Commit()
}

func (r *eventStoreRepo) Since(ctx context.Context, afterSeq uint64, limit int) ([]persistence.EventRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT seq, slot, kind, data, created_at
		FROM ledger_events
		WHERE seq > $1
		ORDER BY seq ASC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events since seq %d: %w", afterSeq, err)
	}
	defer rows.Close()

	var out []persistence.EventRecord
	for rows.Next() {
		var rec persistence.EventRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventStoreRepo) LatestSeq(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var seq uint64
	err := r.db.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) FROM ledger_events`)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest event seq: %w", err)
	}
	return seq, nil
}
