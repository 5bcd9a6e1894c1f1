package persistence

import (
	"context"
	"time"
)

// TimeRange represents a time window for data queries with PIT integrity
type TimeRange struct {
	From time.Time `json:"from"`
	To time.Time `json:"to"`
}

// Repository aggregates all persistence interfaces. Events is the only
// member today — the durable event store — but the type stays a
// struct rather than a bare interface so a future projection repo
// (positions, chains) can be added without changing every call site.
type Repository struct {
	Events EventStore
}

// HealthCheck represents repository health status
type HealthCheck struct {
	Healthy bool `json:"healthy"`
	Errors []string `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck time.Time `json:"last_check"`
	ResponseTimeMS int64 `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for persistence layer
type RepositoryHealth interface {
	// Health returns current repository health status
	Health(ctx context.Context) HealthCheck

	// Ping tests basic connectivity to database
	Ping(ctx context.Context) error

	// Stats returns connection pool and query statistics
	Stats(ctx context.Context) map[string]interface{}
}