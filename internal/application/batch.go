package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// GameSource discovers the games available for a batch run.
type GameSource interface {
	// Discover returns one GameRef per paired transcript/metadata file set.
	Discover(ctx context.Context) ([]domain.GameRef, error)
}

// GameRunner processes a single game end to end: load, evaluate, persist the
// per-game artifact. Implementations must be safe for concurrent use.
type GameRunner interface {
	Run(ctx context.Context, ref domain.GameRef) (*domain.GameResult, error)
}

// AggregationWriter persists the batch-level aggregate artifacts.
type AggregationWriter interface {
	WriteAggregation(agg Aggregation) error
}

// ProcessingResult summarizes a batch run. Failed games are counted, not
// collected; their errors are logged when they occur.
type ProcessingResult struct {
	Total     int
	Completed int
	Failed    int
}

// SuccessRate reports the completed fraction in percent. An empty batch
// reports 0.
func (r ProcessingResult) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Completed) / float64(r.Total) * 100
}

// BatchProcessor orchestrates a full evaluation run: discover games, process
// them on a bounded worker pool, aggregate the successes by team, and emit
// the aggregate artifacts.
//
// Games are isolated from each other. A failed game is logged and counted but
// never stops the batch; aggregation runs over whatever completed.
type BatchProcessor struct {
	source   GameSource
	runner   GameRunner
	writer   AggregationWriter
	criteria domain.CriteriaSet
	workers  int
	logger   *slog.Logger
	metrics  ports.MetricsCollector
}

// NewBatchProcessor constructs a BatchProcessor. workers below 1 is rejected;
// configuration defaulting happens upstream in LoadConfig.
func NewBatchProcessor(
	source GameSource,
	runner GameRunner,
	writer AggregationWriter,
	criteria domain.CriteriaSet,
	workers int,
	logger *slog.Logger,
	metrics ports.MetricsCollector,
) (*BatchProcessor, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", workers)
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	return &BatchProcessor{
		source:   source,
		runner:   runner,
		writer:   writer,
		criteria: criteria,
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// gameOutcome carries one game's fate from a worker back to the collector.
type gameOutcome struct {
	ref    domain.GameRef
	result *domain.GameResult
	err    error
}

// ProcessAllGames runs the batch. It returns an error only when discovery
// fails or when writing the aggregate artifacts fails; individual game
// failures are reflected in the ProcessingResult instead.
func (b *BatchProcessor) ProcessAllGames(ctx context.Context) (ProcessingResult, error) {
	runID := uuid.New().String()
	logger := b.logger.With("run_id", runID)
	start := time.Now()

	refs, err := b.source.Discover(ctx)
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("discover games: %w", err)
	}
	summary := ProcessingResult{Total: len(refs)}
	var completed []*domain.GameResult
	if len(refs) == 0 {
		logger.Warn("no games found to process")
	} else {
		logger.Info("starting batch run", "games", len(refs), "workers", b.workers)

		outcomes := b.runPool(ctx, logger, refs)
		for outcome := range outcomes {
			if outcome.err != nil {
				summary.Failed++
				logger.Error("game processing failed",
					"game_id", outcome.ref.GameID, "error", outcome.err)
				continue
			}
			summary.Completed++
			completed = append(completed, outcome.result)
		}
	}

	b.metrics.RecordLatency("batch_run", time.Since(start), nil)
	b.metrics.RecordGauge("games_completed", float64(summary.Completed), nil)
	b.metrics.RecordGauge("games_failed", float64(summary.Failed), nil)

	if len(completed) > 0 {
		agg := BuildAggregation(completed, b.criteria)
		if err := b.writer.WriteAggregation(agg); err != nil {
			return summary, fmt.Errorf("write aggregation: %w", err)
		}
	} else {
		logger.Warn("no games completed, skipping aggregation")
	}

	logger.Info("batch run finished",
		"total", summary.Total,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate()),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return summary, nil
}

// runPool fans the refs out to b.workers goroutines and returns the outcome
// channel, closed once every game has reported.
func (b *BatchProcessor) runPool(
	ctx context.Context,
	logger *slog.Logger,
	refs []domain.GameRef,
) <-chan gameOutcome {
	tasks := make(chan domain.GameRef)
	outcomes := make(chan gameOutcome)

	var wg sync.WaitGroup
	for i := 0; i < min(b.workers, len(refs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range tasks {
				outcomes <- b.runGame(ctx, logger, ref)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, ref := range refs {
			select {
			case tasks <- ref:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	return outcomes
}

// runGame executes one game and converts panics into ordinary failures so a
// single bad game cannot take down the pool.
func (b *BatchProcessor) runGame(
	ctx context.Context,
	logger *slog.Logger,
	ref domain.GameRef,
) (outcome gameOutcome) {
	outcome.ref = ref
	defer func() {
		if r := recover(); r != nil {
			outcome.result = nil
			outcome.err = fmt.Errorf("panic processing game %s: %v", ref.GameID, r)
		}
	}()

	logger.Info("processing game", "game_id", ref.GameID)
	start := time.Now()

	result, err := b.runner.Run(ctx, ref)
	if err != nil {
		outcome.err = err
		return outcome
	}

	b.metrics.RecordLatency("process_game", time.Since(start), nil)
	logger.Info("game processed",
		"game_id", ref.GameID,
		"criteria", result.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	outcome.result = result
	return outcome
}
