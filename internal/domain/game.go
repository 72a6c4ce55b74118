package domain

import "fmt"

// GameFormat identifies the match format a transcript was recorded under.
type GameFormat string

const (
	// FormatFivePlayer is the five player preliminary format.
	FormatFivePlayer GameFormat = "5_player"

	// FormatThirteenPlayer is the thirteen player main match format.
	FormatThirteenPlayer GameFormat = "13_player"
)

// ParseGameFormat converts a configuration string into a GameFormat.
func ParseGameFormat(s string) (GameFormat, error) {
	switch GameFormat(s) {
	case FormatFivePlayer, FormatThirteenPlayer:
		return GameFormat(s), nil
	}
	return "", fmt.Errorf("unknown game format %q", s)
}

// GameInfo describes one recorded game: its identifier, format, and player
// count. Player count drives criterion applicability and validation.
type GameInfo struct {
	GameID      string
	Format      GameFormat
	PlayerCount int
}

// GameRef is the serializable task input for one game: the identifier plus
// the paths of its paired transcript and metadata files. It crosses the
// orchestrator/worker boundary by value; workers share nothing else.
type GameRef struct {
	GameID       string
	LogPath      string
	MetadataPath string
}

// LoadedGame is a fully prepared game ready for evaluation: detected info,
// the formatted transcript, character profiles, the roster of valid player
// names, and the agent-to-team mapping. All fields are read-only once built.
type LoadedGame struct {
	Info          GameInfo
	Transcript    string
	CharacterInfo string
	Roster        []string
	AgentToTeam   map[string]string
}
