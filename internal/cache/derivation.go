package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/synthetic"
)

// DerivationCache holds the most recent synthetic.Result per wrapper,
// keyed by wrapper id, so a slot where none of a wrapper's source
// markets moved can skip recomputing the composite probability.
type DerivationCache struct {
	client *Client
	ttl    time.Duration
}

// NewDerivationCache wraps client with a TTL for cached derivation
// results; a wrapper whose sources haven't moved in longer than ttl
// is always recomputed rather than trusted stale.
func NewDerivationCache(client *Client, ttl time.Duration) *DerivationCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DerivationCache{client: client, ttl: ttl}
}

func derivationKey(wrapperID domain.ID128) string {
	return "ledger:derivation:" + hex.EncodeToString(wrapperID[:])
}

// Get returns the cached result for wrapperID, if present and unexpired.
func (d *DerivationCache) Get(ctx context.Context, wrapperID domain.ID128) (synthetic.Result, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.client.Timeout)
	defer cancel()

	raw, err := d.client.rdb.Get(ctx, derivationKey(wrapperID)).Bytes()
	if err == redis.Nil {
		return synthetic.Result{}, false, nil
	}
	if err != nil {
		return synthetic.Result{}, false, fmt.Errorf("cache: get derivation: %w", err)
	}

	var result synthetic.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return synthetic.Result{}, false, fmt.Errorf("cache: decode derivation: %w", err)
	}
	return result, true, nil
}

// Set stores result for wrapperID with the cache's configured TTL.
func (d *DerivationCache) Set(ctx context.Context, wrapperID domain.ID128, result synthetic.Result) error {
	ctx, cancel := context.WithTimeout(ctx, d.client.Timeout)
	defer cancel()

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: encode derivation: %w", err)
	}
	if err := d.client.rdb.Set(ctx, derivationKey(wrapperID), raw, d.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set derivation: %w", err)
	}
	return nil
}

// Invalidate drops any cached result for wrapperID, for use when a
// source market's status changes outside the normal derivation tick
// (e.g. a source resolves).
func (d *DerivationCache) Invalidate(ctx context.Context, wrapperID domain.ID128) error {
	ctx, cancel := context.WithTimeout(ctx, d.client.Timeout)
	defer cancel()
	if err := d.client.rdb.Del(ctx, derivationKey(wrapperID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate derivation: %w", err)
	}
	return nil
}
