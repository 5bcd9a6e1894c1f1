package scheduler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultSubmitRatePerSlot / defaultSubmitBurst bound how many orders a
// single caller can submit: the bucket refills at 0.5 tokens per
// wall-clock second (rate.Limit is per second and Allow reads
// time.Now), with room for a burst of five; an empty bucket makes Allow
// return false.
const (
	defaultSubmitRatePerSlot = 0.5
	defaultSubmitBurst       = 5
)

// RateLimiter gates order submission per caller, independent of the
// batch-level congestion split in SelectCongested — a caller can be
// rate limited even when the batch itself has room.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	ratePerSlot float64
	burst       int
}

// NewRateLimiter builds a limiter using the package defaults.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		ratePerSlot: defaultSubmitRatePerSlot,
		burst:       defaultSubmitBurst,
	}
}

// Allow reports whether owner may submit one more order this slot,
// consuming from its token bucket if so.
func (r *RateLimiter) Allow(owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[owner]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.ratePerSlot), r.burst)
		r.limiters[owner] = l
	}
	return l.AllowN(time.Now(), 1)
}

// Reset drops an owner's bucket, used when a principal is re-admitted
// after a pause or a ban lifts.
func (r *RateLimiter) Reset(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, owner)
}
