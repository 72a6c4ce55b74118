package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// Store reads persisted per-game result artifacts back into GameResults for
// aggregation-only reruns. Files that do not match the artifact shape are
// logged and skipped.
type Store struct {
	outputDir string
	logger    *slog.Logger
}

// NewStore constructs a Store over the given output directory.
func NewStore(outputDir string, logger *slog.Logger) (*Store, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Store{outputDir: outputDir, logger: logger}, nil
}

// LoadGameResults implements application.StoredResultSource.
func (s *Store) LoadGameResults(ctx context.Context) ([]*domain.GameResult, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("read output directory %s: %w", s.outputDir, err)
	}

	var results []*domain.GameResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), resultFileSuffix) {
			continue
		}

		path := filepath.Join(s.outputDir, entry.Name())
		result, err := s.loadOne(path)
		if err != nil {
			s.logger.Warn("skipping unreadable result artifact", "path", path, "error", err)
			continue
		}
		results = append(results, result)
	}

	s.logger.Info("loaded stored game results", "count", len(results))
	return results, nil
}

// loadOne rebuilds one GameResult from its artifact. Criteria are appended
// in sorted name order since the artifact's JSON object carries none.
func (s *Store) loadOne(path string) (*domain.GameResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var artifact gameArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if artifact.GameID == "" || len(artifact.Evaluations) == 0 {
		return nil, fmt.Errorf("artifact missing game_id or evaluations")
	}

	names := make([]string, 0, len(artifact.Evaluations))
	for name := range artifact.Evaluations {
		names = append(names, name)
	}
	sort.Strings(names)

	result := domain.NewGameResult()
	for _, name := range names {
		err := result.Append(domain.CriterionResult{
			Criterion: name,
			Players:   artifact.Evaluations[name].Rankings,
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
