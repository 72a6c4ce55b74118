package gamelog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// Source discovers paired game files under an input directory laid out as
// input_dir/log/<id>.log and input_dir/json/<id>.json. Log files without a
// matching sidecar are skipped, not errors.
type Source struct {
	inputDir string
	logger   *slog.Logger
}

// NewSource constructs a Source over the given input directory.
func NewSource(inputDir string, logger *slog.Logger) (*Source, error) {
	if inputDir == "" {
		return nil, fmt.Errorf("input directory cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Source{inputDir: inputDir, logger: logger}, nil
}

// Discover implements application.GameSource. Results are sorted by game
// identifier so runs enumerate games in a stable order.
func (s *Source) Discover(ctx context.Context) ([]domain.GameRef, error) {
	logDir := filepath.Join(s.inputDir, "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("read log directory %s: %w", logDir, err)
	}

	var refs []domain.GameRef
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		gameID := strings.TrimSuffix(entry.Name(), ".log")
		metadataPath := filepath.Join(s.inputDir, "json", gameID+".json")
		if _, err := os.Stat(metadataPath); err != nil {
			s.logger.Debug("skipping log without metadata sidecar",
				"game_id", gameID, "expected", metadataPath)
			continue
		}

		refs = append(refs, domain.GameRef{
			GameID:       gameID,
			LogPath:      filepath.Join(logDir, entry.Name()),
			MetadataPath: metadataPath,
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].GameID < refs[j].GameID })
	s.logger.Info("discovered games", "count", len(refs), "input_dir", s.inputDir)
	return refs, nil
}
