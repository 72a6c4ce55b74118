// Package domain holds the core types of the transcript evaluation pipeline:
// judge rankings, per-criterion and per-game results, and the team aggregate.
// The types carry their own invariants; everything IO-shaped lives behind
// ports and infrastructure.
package domain

import (
	"sort"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// foldCaser is a package-level Unicode case folder so name comparisons do not
// allocate a new caser per call.
var foldCaser = cases.Fold()

// maxHintDistance is the largest edit distance at which a roster name is
// offered as a "did you mean" hint for an unexpected name.
const maxHintDistance = 3

// RankingEntry is one player's judgment for one criterion. Entries are
// immutable once a RankingResponse has been constructed around them.
type RankingEntry struct {
	// PlayerName identifies the ranked player.
	PlayerName string `json:"player_name"`

	// Rank is the player's position for this criterion, 1 being first.
	Rank int `json:"ranking"`

	// Reasoning is the judge's explanation for the assigned rank.
	Reasoning string `json:"reasoning"`
}

// RankingResponse is a judge's complete, validated judgment for one criterion
// on one game. It can only be obtained through NewRankingResponse or
// NewRankingResponseWithContext, so a RankingResponse in hand always satisfies
// the structural invariants: non-empty, distinct ranks, rank set exactly
// {1..N}.
type RankingResponse struct {
	entries []RankingEntry
}

// NewRankingResponse validates the structural invariants and constructs a
// RankingResponse. It fails with ErrEmptyRankings for an empty slice and with
// a StructuralError when ranks repeat or do not form the contiguous sequence
// 1..N.
func NewRankingResponse(entries []RankingEntry) (RankingResponse, error) {
	if len(entries) == 0 {
		return RankingResponse{}, ErrEmptyRankings
	}

	ranks := make([]int, 0, len(entries))
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		ranks = append(ranks, e.Rank)
		if seen[e.Rank] {
			return RankingResponse{}, NewStructuralError("duplicate rank values", ranks)
		}
		seen[e.Rank] = true
	}

	for want := 1; want <= len(entries); want++ {
		if !seen[want] {
			return RankingResponse{}, NewStructuralError(
				"ranks must be the contiguous sequence 1..N", ranks)
		}
	}

	owned := make([]RankingEntry, len(entries))
	copy(owned, entries)
	return RankingResponse{entries: owned}, nil
}

// NewRankingResponseWithContext validates a judge's raw entries against the
// game's ground truth before applying the structural checks. The count check
// runs first, then the name-set check, then NewRankingResponse. The name
// check reports every unexpected and every missing name in one
// NameMismatchError rather than failing on the first discrepancy.
func NewRankingResponseWithContext(
	entries []RankingEntry,
	expectedCount int,
	expectedNames []string,
) (RankingResponse, error) {
	if len(entries) != expectedCount {
		return RankingResponse{}, &CountMismatchError{Got: len(entries), Want: expectedCount}
	}

	expected := make(map[string]bool, len(expectedNames))
	for _, name := range expectedNames {
		expected[name] = true
	}

	submitted := make(map[string]bool, len(entries))
	var unexpected []string
	for _, e := range entries {
		submitted[e.PlayerName] = true
		if !expected[e.PlayerName] {
			unexpected = append(unexpected, e.PlayerName)
		}
	}

	var missing []string
	for _, name := range expectedNames {
		if !submitted[name] {
			missing = append(missing, name)
		}
	}

	if len(unexpected) > 0 || len(missing) > 0 {
		sort.Strings(unexpected)
		sort.Strings(missing)
		return RankingResponse{}, &NameMismatchError{
			Unexpected: unexpected,
			Missing:    missing,
			Hints:      nearestNames(unexpected, expectedNames),
		}
	}

	return NewRankingResponse(entries)
}

// Entries returns a copy of the validated entries in submission order.
func (r RankingResponse) Entries() []RankingEntry {
	out := make([]RankingEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries in the response.
func (r RankingResponse) Len() int { return len(r.entries) }

// nearestNames maps each unexpected name to its closest roster name by
// case-folded Levenshtein distance, skipping matches that are too far away to
// be a plausible misspelling.
func nearestNames(unexpected, roster []string) map[string]string {
	if len(unexpected) == 0 || len(roster) == 0 {
		return nil
	}

	hints := make(map[string]string, len(unexpected))
	for _, name := range unexpected {
		folded := foldCaser.String(name)
		best, bestDist := "", maxHintDistance+1
		for _, candidate := range roster {
			if d := levenshtein.ComputeDistance(folded, foldCaser.String(candidate)); d < bestDist {
				best, bestDist = candidate, d
			}
		}
		if best != "" {
			hints[name] = best
		}
	}
	if len(hints) == 0 {
		return nil
	}
	return hints
}
