package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// StoredResultSource reads back the per-game result artifacts persisted by an
// earlier run. Malformed artifacts are skipped by implementations, not
// surfaced as errors.
type StoredResultSource interface {
	LoadGameResults(ctx context.Context) ([]*domain.GameResult, error)
}

// RegenerateAggregation rebuilds the aggregate artifacts from the persisted
// per-game results of a previous run, without touching the LLM. It fails only
// when the stored results cannot be enumerated at all or the aggregate cannot
// be written.
func RegenerateAggregation(
	ctx context.Context,
	store StoredResultSource,
	writer AggregationWriter,
	criteria domain.CriteriaSet,
	logger *slog.Logger,
) error {
	results, err := store.LoadGameResults(ctx)
	if err != nil {
		return fmt.Errorf("load stored game results: %w", err)
	}
	if len(results) == 0 {
		logger.Warn("no stored game results found, nothing to aggregate")
		return nil
	}

	logger.Info("regenerating aggregation", "games", len(results))

	agg := BuildAggregation(results, criteria)
	if err := writer.WriteAggregation(agg); err != nil {
		return fmt.Errorf("write aggregation: %w", err)
	}

	logger.Info("aggregation regenerated",
		"games", agg.Summary.TotalGamesProcessed,
		"teams", len(agg.Summary.TeamsFound),
		"criteria", len(agg.Summary.CriteriaEvaluated))
	return nil
}
