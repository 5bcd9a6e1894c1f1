// Package cache provides Redis-backed caching for the ledger core: a
// synthetic-wrapper derivation cache (avoid recomputing a composite
// probability every slot when no source market moved) and an
// ingestion dedup guard (refuse a snapshot whose market and producer
// timestamp were already seen within the guard's time window).
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a redis.Client with the connection settings the ledger
// core needs; callers construct the higher-level DerivationCache and
// DedupGuard on top of it rather than touching redis.Client directly.
type Client struct {
	rdb     *redis.Client
	Timeout time.Duration
}

// Options configures a new Client.
type Options struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// New constructs a Client. Connection is established lazily on first
// command, matching go-redis's default behavior.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		Timeout: opts.Timeout,
	}
}

// Ping verifies connectivity, for use in a readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
