package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// GameEvaluator obtains one validated ranking per applicable criterion for a
// single game and assembles them into a GameResult. Criterion evaluations
// run concurrently on a bounded pool; a criterion that exhausts its retry
// budget fails the whole game (all-or-nothing).
type GameEvaluator struct {
	judge    ports.Judge
	criteria domain.CriteriaSet
	retry    RetryPolicy
	workers  int
	logger   *slog.Logger
	metrics  ports.MetricsCollector
}

// NewGameEvaluator constructs a GameEvaluator. workers below 1 falls back to
// DefaultEvaluationWorkers with a warning, matching the configuration
// default policy.
func NewGameEvaluator(
	judge ports.Judge,
	criteria domain.CriteriaSet,
	retry RetryPolicy,
	workers int,
	logger *slog.Logger,
	metrics ports.MetricsCollector,
) (*GameEvaluator, error) {
	if judge == nil {
		return nil, fmt.Errorf("judge cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if workers < 1 {
		logger.Warn("invalid evaluation worker count, using default",
			"configured", workers, "default", DefaultEvaluationWorkers)
		workers = DefaultEvaluationWorkers
	}

	return &GameEvaluator{
		judge:    judge,
		criteria: criteria,
		retry:    retry,
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Evaluate runs one judged ranking per criterion applicable to the game's
// player count and collects them into a GameResult in completion order.
// A game with no applicable criteria yields an empty GameResult, not an
// error. Any criterion failure (including an exhausted retry budget) aborts
// the evaluation and discards sibling results; the game is all-or-nothing.
func (e *GameEvaluator) Evaluate(ctx context.Context, game domain.LoadedGame) (*domain.GameResult, error) {
	applicable := e.criteria.ForPlayerCount(game.Info.PlayerCount)
	if len(applicable) == 0 {
		e.logger.Warn("no evaluation criteria for player count",
			"game_id", game.Info.GameID, "player_count", game.Info.PlayerCount)
		return domain.NewGameResult(), nil
	}

	e.logger.Info("starting evaluation",
		"game_id", game.Info.GameID, "criteria", len(applicable))

	result := domain.NewGameResult()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(applicable), e.workers))

	for _, criterion := range applicable {
		g.Go(func() error {
			response, err := e.evaluateCriterion(gctx, criterion, game)
			if err != nil {
				return fmt.Errorf("evaluation failed for %s: %w", criterion.Name, err)
			}

			// Results land in completion order; only the holder of the lock
			// touches the GameResult.
			mu.Lock()
			defer mu.Unlock()
			if err := result.Append(domain.NewCriterionResult(criterion.Name, response, game.AgentToTeam)); err != nil {
				return err
			}
			e.logger.Debug("completed criterion",
				"game_id", game.Info.GameID, "criterion", criterion.Name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("completed all evaluations",
		"game_id", game.Info.GameID, "criteria", result.Len())
	return result, nil
}

// evaluateCriterion asks the judge for one criterion's rankings, validating
// each response against the roster and retrying the entire call on any
// failure until the budget runs out.
func (e *GameEvaluator) evaluateCriterion(
	ctx context.Context,
	criterion domain.Criterion,
	game domain.LoadedGame,
) (domain.RankingResponse, error) {
	var response domain.RankingResponse
	start := time.Now()

	err := e.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			e.metrics.RecordCounter("evaluation_retries_total", 1, map[string]string{
				"criterion": criterion.Name,
			})
			e.logger.Debug("retrying criterion",
				"game_id", game.Info.GameID, "criterion", criterion.Name, "attempt", attempt)
		}

		entries, err := e.judge.RankPlayers(ctx, criterion, game.Transcript, game.CharacterInfo)
		if err != nil {
			return err
		}

		validated, err := domain.NewRankingResponseWithContext(
			entries, game.Info.PlayerCount, game.Roster)
		if err != nil {
			e.logger.Warn("ranking validation failed",
				"game_id", game.Info.GameID, "criterion", criterion.Name,
				"attempt", attempt, "error", err)
			return err
		}

		response = validated
		return nil
	})

	e.metrics.RecordLatency("evaluate_criterion", time.Since(start), map[string]string{
		"criterion": criterion.Name,
	})
	if err != nil {
		return domain.RankingResponse{}, err
	}
	return response, nil
}
