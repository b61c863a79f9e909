// Package metrics exposes Prometheus instrumentation for the
// provisioning service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tokenforge/liquidity/pkg/types"
)

// PrometheusMetrics holds all Prometheus metrics for the service.
type PrometheusMetrics struct {
	// Attempt counters
	AttemptsTotal *prometheus.CounterVec

	// Gauges
	AttemptsInFlight prometheus.Gauge

	// Histograms
	AttemptDuration *prometheus.HistogramVec
	GasUsed         *prometheus.HistogramVec

	// Detail counters
	ErrorsTotal      *prometheus.CounterVec
	MintRetriesTotal prometheus.Counter
	ApprovalsTotal   *prometheus.CounterVec
	PhaseTransitions *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers all Prometheus metrics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &PrometheusMetrics{
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidity_attempts_total",
				Help: "Provisioning attempts by dex variant and outcome",
			},
			[]string{"dex", "status"},
		),

		AttemptsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "liquidity_attempts_in_flight",
				Help: "Attempts currently being orchestrated",
			},
		),

		AttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liquidity_attempt_duration_seconds",
				Help:    "Wall-clock time for a full provisioning attempt",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"dex"},
		),

		GasUsed: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "liquidity_gas_used",
				Help:    "Gas consumed by confirmed liquidity transactions",
				Buckets: []float64{50_000, 150_000, 300_000, 500_000, 1_000_000, 2_000_000, 5_000_000, 8_000_000},
			},
			[]string{"dex"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidity_errors_total",
				Help: "Terminal failures by classified kind",
			},
			[]string{"kind"},
		),

		MintRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "liquidity_mint_retries_total",
				Help: "Mints retried with widened tick bounds",
			},
		),

		ApprovalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidity_approvals_total",
				Help: "Allowance checks by outcome",
			},
			[]string{"outcome"},
		),

		PhaseTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liquidity_phase_transitions_total",
				Help: "Phase state transitions streamed to observers",
			},
			[]string{"phase", "state"},
		),
	}
}

// RecordAttemptStarted marks an attempt in flight.
func (m *PrometheusMetrics) RecordAttemptStarted() {
	m.AttemptsInFlight.Inc()
}

// RecordAttemptFinished records the resolved attempt.
func (m *PrometheusMetrics) RecordAttemptFinished(dex types.DexVariant, kind types.ErrorKind, durationSeconds float64) {
	m.AttemptsInFlight.Dec()
	status := "success"
	if kind != "" {
		status = "failure"
		m.ErrorsTotal.WithLabelValues(string(kind)).Inc()
	}
	m.AttemptsTotal.WithLabelValues(string(dex), status).Inc()
	m.AttemptDuration.WithLabelValues(string(dex)).Observe(durationSeconds)
}

// RecordGasUsed records gas consumed by a confirmed transaction.
func (m *PrometheusMetrics) RecordGasUsed(dex types.DexVariant, gasUsed uint64) {
	m.GasUsed.WithLabelValues(string(dex)).Observe(float64(gasUsed))
}

// RecordMintRetry records one widened-parameter retry.
func (m *PrometheusMetrics) RecordMintRetry() {
	m.MintRetriesTotal.Inc()
}

// RecordApproval records an allowance check outcome.
func (m *PrometheusMetrics) RecordApproval(outcome types.ApprovalOutcome) {
	m.ApprovalsTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordPhaseTransition records one streamed phase update.
func (m *PrometheusMetrics) RecordPhaseTransition(phase types.Phase, state types.PhaseState) {
	m.PhaseTransitions.WithLabelValues(string(phase), string(state)).Inc()
}
