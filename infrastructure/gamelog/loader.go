package gamelog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// Loader implements application.TranscriptLoader: it turns a discovered
// GameRef into a fully prepared LoadedGame. The format and player count come
// from run configuration, not from the files.
type Loader struct {
	format      domain.GameFormat
	playerCount int
	logger      *slog.Logger
}

// NewLoader constructs a Loader for the configured game format.
func NewLoader(format domain.GameFormat, playerCount int, logger *slog.Logger) (*Loader, error) {
	if playerCount < 1 {
		return nil, fmt.Errorf("player count must be at least 1, got %d", playerCount)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Loader{format: format, playerCount: playerCount, logger: logger}, nil
}

// Load reads the log and metadata pair and assembles the LoadedGame. A game
// with no character profiles still loads; the judge prompt just gets empty
// character info.
func (l *Loader) Load(ctx context.Context, ref domain.GameRef) (domain.LoadedGame, error) {
	if err := ctx.Err(); err != nil {
		return domain.LoadedGame{}, err
	}

	meta, err := ReadMetadata(ref.MetadataPath)
	if err != nil {
		return domain.LoadedGame{}, err
	}

	transcript, err := FormatTranscript(ref.LogPath, l.format)
	if err != nil {
		return domain.LoadedGame{}, err
	}

	characterInfo := meta.CharacterInfo()
	if characterInfo == "" {
		l.logger.Warn("no character profiles in metadata", "game_id", ref.GameID)
	}

	roster := meta.Roster()
	if len(roster) != l.playerCount {
		l.logger.Warn("metadata roster size differs from configured player count",
			"game_id", ref.GameID, "roster", len(roster), "configured", l.playerCount)
	}

	return domain.LoadedGame{
		Info: domain.GameInfo{
			GameID:      ref.GameID,
			Format:      l.format,
			PlayerCount: l.playerCount,
		},
		Transcript:    transcript,
		CharacterInfo: characterInfo,
		Roster:        roster,
		AgentToTeam:   meta.AgentToTeam(),
	}, nil
}
