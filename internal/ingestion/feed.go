package ingestion

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// FetchFunc retrieves one page of snapshots from the external feed.
type FetchFunc func(offset, limit int) ([]Snapshot, error)

// FeedBreaker wraps an external-feed fetch with a gobreaker circuit
// breaker: trips open on consecutive fetch failures so a misbehaving
// upstream stops being hammered every slot, rather than guarding a
// protocol-internal threshold (that's internal/safety's Breaker/Manager).
type FeedBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewFeedBreaker builds a breaker that opens after consecutiveFailures
// straight fetch errors and probes again after timeout.
func NewFeedBreaker(name string, consecutiveFailures uint32, timeout time.Duration) *FeedBreaker {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	}
	return &FeedBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Fetch executes fn through the breaker, returning the gobreaker
// sentinel error (`gobreaker.ErrOpenState`) when the feed is tripped
// open rather than attempting the call.
func (f *FeedBreaker) Fetch(fetch FetchFunc, offset, limit int) ([]Snapshot, error) {
	result, err := f.cb.Execute(func() (interface{}, error) {
		return fetch(offset, limit)
	})
	if err != nil {
		return nil, err
	}
	snapshots, ok := result.([]Snapshot)
	if !ok {
		return nil, fmt.Errorf("feed breaker: unexpected result type %T", result)
	}
	return snapshots, nil
}

// State reports the breaker's current gobreaker.State (Closed,
// HalfOpen, Open) for health reporting.
func (f *FeedBreaker) State() gobreaker.State {
	return f.cb.State()
}

// IsOpen reports whether the feed breaker currently refuses fetches —
// callers should treat this as grounds to engage the safety
// supervisor's trading pause via safety.CheckFeedOutage rather than
// retrying immediately.
func (f *FeedBreaker) IsOpen() bool {
	return f.cb.State() == gobreaker.StateOpen
}
