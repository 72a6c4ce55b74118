package gamelog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Metadata is the JSON sidecar paired with each log file. It names the game
// and the participating agents with their team and character profile.
type Metadata struct {
	GameID string  `json:"game_id"`
	Agents []Agent `json:"agents"`
}

// Agent is one participant in the metadata sidecar.
type Agent struct {
	AgentName string `json:"agent_name"`
	Team      string `json:"team"`
	Profile   string `json:"profile"`
}

// ReadMetadata reads and parses a metadata sidecar file.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata file: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata file %s: %w", path, err)
	}
	return meta, nil
}

// Roster returns the agent names in file order.
func (m Metadata) Roster() []string {
	names := make([]string, 0, len(m.Agents))
	for _, a := range m.Agents {
		names = append(names, a.AgentName)
	}
	return names
}

// AgentToTeam maps each agent name to its team.
func (m Metadata) AgentToTeam() map[string]string {
	mapping := make(map[string]string, len(m.Agents))
	for _, a := range m.Agents {
		mapping[a.AgentName] = a.Team
	}
	return mapping
}

// CharacterInfo renders the character profiles as the "- Name: profile"
// lines embedded into the judge prompt. Agents without a profile are
// skipped.
func (m Metadata) CharacterInfo() string {
	var lines []string
	for _, a := range m.Agents {
		if a.Profile == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", a.AgentName, a.Profile))
	}
	return strings.Join(lines, "\n")
}
