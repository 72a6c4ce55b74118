package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// TranscriptLoader turns a GameRef into a fully prepared LoadedGame: parsed
// transcript, character profiles, roster, and team mapping.
type TranscriptLoader interface {
	Load(ctx context.Context, ref domain.GameRef) (domain.LoadedGame, error)
}

// GameResultWriter persists one game's evaluation artifact.
type GameResultWriter interface {
	WriteGameResult(info domain.GameInfo, result *domain.GameResult) error
}

// GamePipeline is the per-game GameRunner: load the transcript, evaluate
// every applicable criterion, persist the result. Any stage failing fails
// the game.
type GamePipeline struct {
	loader    TranscriptLoader
	evaluator *GameEvaluator
	writer    GameResultWriter
	logger    *slog.Logger
}

// NewGamePipeline constructs a GamePipeline.
func NewGamePipeline(
	loader TranscriptLoader,
	evaluator *GameEvaluator,
	writer GameResultWriter,
	logger *slog.Logger,
) (*GamePipeline, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &GamePipeline{
		loader:    loader,
		evaluator: evaluator,
		writer:    writer,
		logger:    logger,
	}, nil
}

// Run implements GameRunner.
func (p *GamePipeline) Run(ctx context.Context, ref domain.GameRef) (*domain.GameResult, error) {
	game, err := p.loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", ref.GameID, err)
	}

	result, err := p.evaluator.Evaluate(ctx, game)
	if err != nil {
		return nil, fmt.Errorf("evaluate game %s: %w", ref.GameID, err)
	}

	if err := p.writer.WriteGameResult(game.Info, result); err != nil {
		return nil, fmt.Errorf("write result for game %s: %w", ref.GameID, err)
	}

	p.logger.Debug("game pipeline complete", "game_id", ref.GameID)
	return result, nil
}
