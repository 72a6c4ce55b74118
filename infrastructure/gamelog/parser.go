// Package gamelog reads recorded Werewolf games from disk: pair discovery,
// CSV action parsing, transcript formatting for the judge, and the metadata
// sidecar with rosters and team mappings.
package gamelog

import (
	"fmt"
	"strconv"
)

// Record is one parsed log line. Keys depend on the action; "day",
// "action", and "line_number" are always present. The flat map shape
// survives JSON encoding into the judge transcript unchanged.
type Record map[string]any

// Action names appearing in the log CSV.
const (
	ActionTalk    = "talk"
	ActionWhisper = "whisper"
	ActionStatus  = "status"
	ActionVote    = "vote"
	ActionDivine  = "divine"
	ActionExecute = "execute"
	ActionGuard   = "guard"
	ActionResult  = "result"
)

// parseLine maps one CSV row onto a Record. Column 0 is the day, column 1
// the action, and the remaining columns are action specific. Columns missing
// from short rows become empty strings; unknown actions keep only the common
// fields.
func parseLine(row []string) (Record, error) {
	if len(row) < 2 {
		return nil, fmt.Errorf("row has %d columns, need at least 2", len(row))
	}

	day, err := strconv.Atoi(row[0])
	if err != nil {
		return nil, fmt.Errorf("day must be an integer, got %q", row[0])
	}

	action := row[1]
	record := Record{"day": day, "action": action}

	switch action {
	case ActionTalk, ActionWhisper:
		record["talk_number"] = col(row, 2)
		record["turn_count"] = col(row, 3)
		record["speaker_index"] = col(row, 4)
		record["text"] = col(row, 5)
	case ActionStatus:
		record["player_index"] = col(row, 2)
		record["role"] = col(row, 3)
		record["alive_status"] = col(row, 4)
		record["team_name"] = col(row, 5)
		record["player_name"] = col(row, 6)
	case ActionVote:
		record["voter_index"] = col(row, 2)
		record["target_index"] = col(row, 3)
	case ActionDivine:
		record["diviner_index"] = col(row, 2)
		record["target_index"] = col(row, 3)
		record["divine_result"] = col(row, 4)
	case ActionExecute:
		record["executed_player_index"] = col(row, 2)
		record["executed_player_role"] = col(row, 3)
	case ActionGuard:
		record["guard_player_index"] = col(row, 2)
		record["target_player_index"] = col(row, 3)
		record["target_player_role"] = col(row, 4)
	case ActionResult:
		record["villager_survivors"] = col(row, 2)
		record["werewolf_survivors"] = col(row, 3)
		record["winning_team"] = col(row, 4)
	}

	return record, nil
}

// col returns the column value or "" when the row is too short.
func col(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}
