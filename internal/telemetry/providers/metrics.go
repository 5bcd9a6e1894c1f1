// Package providers tracks rolling request/error/latency statistics
// for the ledger's external feed sources (ingestion fetch calls routed
// through an ingestion.FeedBreaker), independent of the Prometheus
// registry — used to answer "how is feed X doing right now" without a
// scrape round-trip, e.g. for a JSON health endpoint.
package providers

import (
	"sync"
	"time"
)

// MetricsCollector aggregates per-feed-source request/error/latency
// counters.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics map[string]*FeedMetrics
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{metrics: make(map[string]*FeedMetrics)}
}

// FeedMetrics holds rolling metrics for a single external feed source.
type FeedMetrics struct {
	Source string `json:"source"`

	TotalFetches   int64 `json:"total_fetches"`
	SuccessFetches int64 `json:"success_fetches"`
	FailedFetches  int64 `json:"failed_fetches"`

	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`

	CircuitState string `json:"circuit_state"` // "closed", "open", "half-open"

	LastUpdated time.Time `json:"last_updated"`
	LastFetchAt time.Time `json:"last_fetch_at,omitempty"`
}

// RecordFetch records a successful fetch with its latency.
func (m *MetricsCollector) RecordFetch(source string, latencyMS float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fm := m.getOrCreate(source)
	fm.TotalFetches++
	fm.SuccessFetches++
	now := time.Now()
	fm.LastFetchAt = now
	fm.LastUpdated = now

	if fm.AvgLatencyMS == 0 {
		fm.AvgLatencyMS = latencyMS
	} else {
		fm.AvgLatencyMS = 0.9*fm.AvgLatencyMS + 0.1*latencyMS // EMA, alpha=0.1
	}
	m.updateErrorRate(fm)
}

// RecordFetchError records a failed fetch attempt.
func (m *MetricsCollector) RecordFetchError(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fm := m.getOrCreate(source)
	fm.TotalFetches++
	fm.FailedFetches++
	now := time.Now()
	fm.LastFetchAt = now
	fm.LastUpdated = now
	m.updateErrorRate(fm)
}

// UpdateCircuitState records the current FeedBreaker state for source.
func (m *MetricsCollector) UpdateCircuitState(source, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fm := m.getOrCreate(source)
	fm.CircuitState = state
	fm.LastUpdated = time.Now()
}

func (m *MetricsCollector) getOrCreate(source string) *FeedMetrics {
	if fm, ok := m.metrics[source]; ok {
		return fm
	}
	fm := &FeedMetrics{Source: source, CircuitState: "closed", LastUpdated: time.Now()}
	m.metrics[source] = fm
	return fm
}

func (m *MetricsCollector) updateErrorRate(fm *FeedMetrics) {
	if fm.TotalFetches > 0 {
		fm.ErrorRate = float64(fm.FailedFetches) / float64(fm.TotalFetches) * 100
	}
}

// Get returns a copy of the metrics for source, if any.
func (m *MetricsCollector) Get(source string) (FeedMetrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fm, ok := m.metrics[source]
	if !ok {
		return FeedMetrics{}, false
	}
	return *fm, true
}

// All returns a copy of every tracked source's metrics.
func (m *MetricsCollector) All() map[string]FeedMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]FeedMetrics, len(m.metrics))
	for source, fm := range m.metrics {
		out[source] = *fm
	}
	return out
}
