package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gary322/flashbets-ledger/internal/ledger"
	"github.com/gary322/flashbets-ledger/internal/persistence"
)

// durableSink adapts a persistence.EventStore to ledger.EventSink,
// JSON-marshaling each event's payload into the store's opaque Data
// column.
type durableSink struct {
	store persistence.EventStore
}

func newDurableSink(store persistence.EventStore) *durableSink {
	return &durableSink{store: store}
}

func (s *durableSink) Append(e ledger.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	return s.store.Append(context.Background(), persistence.EventRecord{
		Seq:  e.Seq,
		Slot: e.Slot,
		Kind: string(e.Kind),
		Data: data,
	})
}
