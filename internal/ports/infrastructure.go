// Package ports defines the interfaces between the evaluation pipeline and
// its collaborators: the LLM judge, the transcript source, and operational
// concerns like metrics. Application code depends on these interfaces only;
// infrastructure packages provide the implementations.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// LLMClient is the transport-level interface to a language model provider.
// Implementations handle authentication, request formatting, and response
// parsing for their provider.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text. The options
	// map carries provider-tunable knobs such as "temperature" (float64),
	// "max_tokens" (int), and "system" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// GetModel returns the model identifier this client is configured for.
	GetModel() string
}

// Judge is the evaluation-level collaborator: given one criterion and a
// game's formatted transcript, it obtains the raw, unvalidated ranking
// entries from the model. Validation against the roster belongs to the
// caller, not the judge.
type Judge interface {
	// RankPlayers asks the model to rank every player of the game along the
	// given criterion. The returned entries carry no ordering guarantee and
	// have not been validated.
	RankPlayers(
		ctx context.Context,
		criterion domain.Criterion,
		transcript string,
		characterInfo string,
	) ([]domain.RankingEntry, error)
}

// MetricsCollector records operational metrics for the pipeline.
// Implementations integrate with Prometheus or a test double.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric by value.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}

// NopMetrics is a MetricsCollector that discards everything. It keeps test
// and wiring code free of nil checks.
type NopMetrics struct{}

// RecordLatency implements MetricsCollector.
func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}

// RecordCounter implements MetricsCollector.
func (NopMetrics) RecordCounter(string, float64, map[string]string) {}

// RecordGauge implements MetricsCollector.
func (NopMetrics) RecordGauge(string, float64, map[string]string) {}
