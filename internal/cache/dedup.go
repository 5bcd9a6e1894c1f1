package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
)

// DedupGuard refuses to let the same (market, producer timestamp)
// snapshot be applied twice within window, guarding against a feed
// retry or a duplicate delivery re-triggering IngestBatch for a
// reading the core already committed.
type DedupGuard struct {
	client *Client
	window time.Duration
}

// NewDedupGuard wraps client with the dedup window.
func NewDedupGuard(client *Client, window time.Duration) *DedupGuard {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &DedupGuard{client: client, window: window}
}

func dedupKey(marketID domain.MarketID, producerTimestamp time.Time) string {
	return fmt.Sprintf("ledger:ingest:seen:%s:%d", hex.EncodeToString(marketID[:]), producerTimestamp.UnixNano())
}

// Claim atomically marks (marketID, producerTimestamp) as seen and
// reports whether this caller is the first to claim it — first=false
// means some other caller (or a prior attempt) already applied this
// exact reading and IngestBatch should skip it.
func (g *DedupGuard) Claim(ctx context.Context, marketID domain.MarketID, producerTimestamp time.Time) (first bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.client.Timeout)
	defer cancel()

	ok, err := g.client.rdb.SetNX(ctx, dedupKey(marketID, producerTimestamp), 1, g.window).Result()
	if err != nil {
		return false, fmt.Errorf("cache: claim dedup: %w", err)
	}
	return ok, nil
}
