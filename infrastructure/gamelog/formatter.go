package gamelog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ahrav/go-tribunal/internal/domain"
)

// trailingDigits matches the numeric suffix appended to team names in the
// main match format (e.g. "team_alpha2").
var trailingDigits = regexp.MustCompile(`\d+$`)

// indexKey matches record keys holding a player index that should be
// replaced by the player's name.
var indexKey = regexp.MustCompile(`(.+)_index$`)

// FormatTranscript converts a log CSV into the JSONL transcript the judge
// receives: one JSON-encoded record per line. Player indices are replaced by
// names learned from the status rows, and team names lose their trailing
// digits in the thirteen player format.
func FormatTranscript(logPath string, format domain.GameFormat) (string, error) {
	rows, err := readLogRows(logPath)
	if err != nil {
		return "", err
	}

	players := playerMapping(rows)

	var lines []string
	for lineNumber, row := range rows {
		record, err := parseLine(row)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", lineNumber, err)
		}
		record["line_number"] = lineNumber

		normalizeTeamName(record, format)
		if record["action"] != ActionStatus {
			record = resolveIndexKeys(record, players)
		}

		encoded, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("line %d: encode record: %w", lineNumber, err)
		}
		lines = append(lines, string(encoded))
	}

	return strings.Join(lines, "\n"), nil
}

// readLogRows reads every CSV row of the log file. Rows vary in width per
// action, so field count checking is disabled.
func readLogRows(logPath string) ([][]string, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read log file %s: %w", logPath, err)
	}
	return rows, nil
}

// playerMapping learns index → player name from the status rows.
func playerMapping(rows [][]string) map[string]string {
	mapping := make(map[string]string)
	for _, row := range rows {
		record, err := parseLine(row)
		if err != nil || record["action"] != ActionStatus {
			continue
		}
		index, _ := record["player_index"].(string)
		name, _ := record["player_name"].(string)
		if index != "" && name != "" {
			mapping[index] = name
		}
	}
	return mapping
}

// normalizeTeamName strips the trailing digits from team names in the main
// match format, where each team fields multiple numbered agents.
func normalizeTeamName(record Record, format domain.GameFormat) {
	if format != domain.FormatThirteenPlayer {
		return
	}
	if team, ok := record["team_name"].(string); ok && team != "" {
		record["team_name"] = trailingDigits.ReplaceAllString(team, "")
	}
}

// resolveIndexKeys replaces every *_index key with its player-name
// counterpart when the index is known. Unknown indices keep the original key
// and value.
func resolveIndexKeys(record Record, players map[string]string) Record {
	if len(players) == 0 {
		return record
	}

	resolved := make(Record, len(record))
	for key, value := range record {
		match := indexKey.FindStringSubmatch(key)
		if match == nil {
			resolved[key] = value
			continue
		}
		index, _ := value.(string)
		if name, ok := players[index]; ok {
			resolved[match[1]] = name
		} else {
			resolved[key] = value
		}
	}
	return resolved
}
