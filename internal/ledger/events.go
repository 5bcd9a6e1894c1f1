// Package ledger implements the serial per-slot step loop: one atomic
// batch per step, linearly ordered and transactional state mutation,
// and the append-only egress event log.
package ledger

import "sync"

// EventKind enumerates the egress events the core loop can emit. The
// core emits these in order; external observers only ever see copies
// of state via these events or read-path projections, never mutate
// through them.
type EventKind string

const (
	EventOrderAccepted EventKind = "OrderAccepted"
	EventOrderFilled EventKind = "OrderFilled"
	EventOrderCancelled EventKind = "OrderCancelled"
	EventPositionOpened EventKind = "PositionOpened"
	EventPositionModified EventKind = "PositionModified"
	EventPositionClosed EventKind = "PositionClosed"
	EventPositionLiquidated EventKind = "PositionLiquidated"
	EventAuctionStarted EventKind = "AuctionStarted"
	EventBidPlaced EventKind = "BidPlaced"
	EventAuctionFinalized EventKind = "AuctionFinalized"
	EventChainStarted EventKind = "ChainStarted"
	EventChainStepExecuted EventKind = "ChainStepExecuted"
	EventChainUnwound EventKind = "ChainUnwound"
	EventChainSettled EventKind = "ChainSettled"
	EventFundingAccrued EventKind = "FundingAccrued"
	EventPriceUpdated EventKind = "PriceUpdated"
	EventWrapperDerived EventKind = "WrapperDerived"
	EventSeasonTransitioned EventKind = "SeasonTransitioned"
	EventRewardDistributed EventKind = "RewardDistributed"
	EventStakeUpdated EventKind = "StakeUpdated"
	EventPauseChanged EventKind = "PauseChanged"
	EventCircuitBreakerTripped EventKind = "CircuitBreakerTripped"
)

// Event is one append-only egress record. Seq is a monotonically
// increasing log-wide sequence number (not per-slot), so consumers can
// detect gaps.
type Event struct {
	Seq uint64
	Slot uint64
	Kind EventKind
	Data interface{}
}

// EventSink durably persists events the log has already accepted. A nil
// sink keeps the log purely in-memory; Append never fails because of a
// sink write error — the sink logs its own failures and the in-memory
// log remains the source of truth for the running process.
type EventSink interface {
	Append(e Event) error
}

// EventLog is the append-only, ordered egress projection. It is
// the single designated writer path for events — nothing else in the
// core appends to it directly.
type EventLog struct {
	mu sync.Mutex
	events []Event
	seq uint64
	sink EventSink
}

// NewEventLog builds an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// NewEventLogFrom builds a log whose sequence counter resumes after
// lastSeq, for a process restarting against a durable store that
// already holds events from a prior run.
func NewEventLogFrom(lastSeq uint64) *EventLog {
	return &EventLog{seq: lastSeq}
}

// SetSink attaches a durable sink; every subsequent Append is mirrored
// to it after being accepted into the in-memory log.
func (l *EventLog) SetSink(sink EventSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

// Append records one event under the next sequence number.
func (l *EventLog) Append(slot uint64, kind EventKind, data interface{}) Event {
	l.mu.Lock()
	l.seq++
	e := Event{Seq: l.seq, Slot: slot, Kind: kind, Data: data}
	l.events = append(l.events, e)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		_ = sink.Append(e)
	}
	return e
}

// Since returns every event with Seq > afterSeq, in order — the
// incremental-read path for external observers.
func (l *EventLog) Since(afterSeq uint64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range l.events {
		if e.Seq > afterSeq {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the total number of events recorded.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
