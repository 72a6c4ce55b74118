// Package middleware provides cross-cutting concerns for the evaluation
// pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tribunal/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes the pipeline's latency, throughput, and LLM token
// consumption through the default registry.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics in the global Prometheus registry. Construct it at most once
// per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tribunal_operation_duration_seconds",
				Help:    "Execution time of pipeline operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tribunal_operations_total",
				Help: "Total pipeline operations by name.",
			},
			[]string{"operation", "model", "criterion"},
		),
		tokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tribunal_llm_tokens_total",
				Help: "Total tokens consumed across LLM calls.",
			},
			[]string{"direction", "model"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tribunal_batch_state",
				Help: "Current batch run state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, labels["model"]).
		Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Token metrics route to the token counter; everything
// else lands on the general operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_tokens_input_total":
		pm.tokensUsed.WithLabelValues("input", labels["model"]).Add(value)
	case "llm_tokens_output_total":
		pm.tokensUsed.WithLabelValues("output", labels["model"]).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, labels["model"], labels["criterion"]).
			Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
