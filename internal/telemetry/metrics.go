// Package telemetry exposes the ledger's Prometheus metrics. The
// in-process rolling-latency trackers live in the latency subpackage.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every Prometheus metric the ledger core exports.
type Registry struct {
	StepDuration *prometheus.HistogramVec
	StepsTotal   *prometheus.CounterVec
	StepErrors   *prometheus.CounterVec

	ComputeUnitsUsed prometheus.Gauge

	OrdersRouted      *prometheus.CounterVec
	OrdersSandwiched  prometheus.Counter
	OrdersRateLimited prometheus.Counter
	FundingAccrued    prometheus.Counter
	Liquidations      *prometheus.CounterVec
	ChainStepsRun     prometheus.Counter
	ChainsUnwound     prometheus.Counter

	SafetyPauseLevel prometheus.Gauge
	CircuitTrips     *prometheus.CounterVec

	IngestionBatches   *prometheus.CounterVec
	IngestionLag       prometheus.Gauge

	RewardEmitted *prometheus.CounterVec
}

// NewRegistry builds and registers every ledger metric against reg.
// Callers pass prometheus.NewRegistry() in tests to avoid collisions
// with the global DefaultRegisterer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_step_stage_duration_seconds",
				Help:    "Duration of each RunStep stage in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"stage"},
		),
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_steps_total",
				Help: "Total number of RunStep invocations by result",
			},
			[]string{"result"},
		),
		StepErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_step_errors_total",
				Help: "Total number of RunStep aborts by stage and error",
			},
			[]string{"stage", "error"},
		),
		ComputeUnitsUsed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_compute_units_used",
				Help: "Estimated compute units consumed by the most recent step",
			},
		),
		OrdersRouted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_orders_routed_total",
				Help: "Total number of orders routed, by fill kind",
			},
			[]string{"kind"},
		),
		OrdersSandwiched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_orders_sandwiched_total",
				Help: "Total number of orders rejected by the anti-sandwich filter",
			},
		),
		OrdersRateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_orders_rate_limited_total",
				Help: "Total number of orders rejected by the per-caller submission rate limiter",
			},
		),
		FundingAccrued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_funding_accruals_total",
				Help: "Total number of per-position funding accruals applied",
			},
		),
		Liquidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_liquidations_total",
				Help: "Total number of liquidation waterfalls executed, by outcome",
			},
			[]string{"outcome"},
		),
		ChainStepsRun: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_chain_steps_total",
				Help: "Total number of multi-step chain executions advanced",
			},
		),
		ChainsUnwound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_chains_unwound_total",
				Help: "Total number of chains unwound",
			},
		),
		SafetyPauseLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_safety_pause_level",
				Help: "Current safety pause level (0=none,1=partial,2=full,3=freeze)",
			},
		),
		CircuitTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_circuit_trips_total",
				Help: "Total number of circuit breaker trips, by breaker kind",
			},
			[]string{"kind"},
		),
		IngestionBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_ingestion_batches_total",
				Help: "Total number of ingestion batches applied, by result",
			},
			[]string{"result"},
		),
		IngestionLag: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_ingestion_lag_slots",
				Help: "Slots elapsed since the last successful ingestion fetch",
			},
		),
		RewardEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_reward_emitted_total",
				Help: "Total reward tokens emitted, by category",
			},
			[]string{"category"},
		),
	}

	reg.MustRegister(
		r.StepDuration, r.StepsTotal, r.StepErrors, r.ComputeUnitsUsed,
		r.OrdersRouted, r.OrdersSandwiched, r.OrdersRateLimited, r.FundingAccrued, r.Liquidations,
		r.ChainStepsRun, r.ChainsUnwound, r.SafetyPauseLevel, r.CircuitTrips,
		r.IngestionBatches, r.IngestionLag, r.RewardEmitted,
	)
	return r
}

// StageTimer times one RunStep stage and records its duration on Stop.
type StageTimer struct {
	reg   *Registry
	stage string
	obs   prometheus.Observer
}

// StartStage begins timing the named stage.
func (r *Registry) StartStage(stage string) *StageTimer {
	return &StageTimer{reg: r, stage: stage, obs: r.StepDuration.WithLabelValues(stage)}
}

// StopWithSeconds records the elapsed duration in seconds against the stage's
// histogram bucket. Takes the duration directly rather than measuring
// internally so callers can share one time.Now() across several timers.
func (t *StageTimer) StopWithSeconds(seconds float64) {
	t.obs.Observe(seconds)
}
