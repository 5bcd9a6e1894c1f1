package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gary322/flashbets-ledger/internal/persistence/postgres"
)

// Config holds the connection settings for the durable event store. DSN
// empty and Enabled false keeps a ledgerctl invocation entirely
// in-memory — Postgres is opt-in, not required to run the core.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	Enabled         bool
}

// DefaultConfig returns a disabled configuration; callers opt in by
// setting DSN and Enabled.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
		Enabled:         false,
	}
}

// Manager owns the Postgres connection pool backing the event store and
// reports its health to the operator HTTP surface.
type Manager struct {
	db     *sqlx.DB
	config Config
	repo   *Repository
	health *healthChecker
}

// NewManager opens a connection pool and wires the event store repo, or
// returns a disabled Manager if config.Enabled is false.
func NewManager(config Config) (*Manager, error) {
	if !config.Enabled {
		return &Manager{config: config, health: &healthChecker{enabled: false}}, nil
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("persistence: DSN is required when enabled")
	}

	db, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: ping: %w", err)
	}

	repo := &Repository{Events: postgres.NewEventStoreRepo(db, config.QueryTimeout)}
	return &Manager{
		db:     db,
		config: config,
		repo:   repo,
		health: &healthChecker{enabled: true, db: db, timeout: config.QueryTimeout},
	}, nil
}

// Repository returns the wired event store, or nil if persistence is disabled.
func (m *Manager) Repository() *Repository {
	return m.repo
}

// Health returns the health checker for the operator HTTP surface.
func (m *Manager) Health() RepositoryHealth {
	return m.health
}

// IsEnabled reports whether a live Postgres connection backs this manager.
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled && m.db != nil
}

// Close releases the connection pool, a no-op when disabled.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

type healthChecker struct {
	enabled bool
	db      *sqlx.DB
	timeout time.Duration
}

func (h *healthChecker) Health(ctx context.Context) HealthCheck {
	if !h.enabled {
		return HealthCheck{Healthy: true, Errors: []string{"postgres persistence disabled"}, LastCheck: time.Now()}
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var errs []string
	healthy := true
	if err := h.db.PingContext(pingCtx); err != nil {
		errs = append(errs, fmt.Sprintf("ping failed: %v", err))
		healthy = false
	}

	stats := h.db.Stats()
	pool := map[string]int{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"in_use":   stats.InUse,
		"idle":     stats.Idle,
	}

	return HealthCheck{
		Healthy:        healthy,
		Errors:         errs,
		ConnectionPool: pool,
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	if !h.enabled {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(pingCtx)
}

func (h *healthChecker) Stats(ctx context.Context) map[string]interface{} {
	if !h.enabled {
		return map[string]interface{}{"enabled": false}
	}
	stats := h.db.Stats()
	return map[string]interface{}{
		"enabled":   true,
		"max_open":  stats.MaxOpenConnections,
		"open":      stats.OpenConnections,
		"in_use":    stats.InUse,
		"idle":      stats.Idle,
		"wait_count": stats.WaitCount,
	}
}
