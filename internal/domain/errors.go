package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common domain errors that can occur while validating rankings and
// assembling results.
var (
	// ErrEmptyRankings indicates that a ranking response contained no entries.
	ErrEmptyRankings = errors.New("ranking response must not be empty")

	// ErrCriterionNotFound indicates that a requested criterion does not
	// exist in a GameResult.
	ErrCriterionNotFound = errors.New("criterion not found")

	// ErrInvalidCriterion indicates that a criterion definition is invalid
	// or incomplete.
	ErrInvalidCriterion = errors.New("invalid criterion")
)

// StructuralError reports a ranking response whose rank values violate the
// structural contract: every rank distinct and the rank set exactly {1..N}.
// Structural failures are recoverable by re-asking the judge.
type StructuralError struct {
	// Reason describes which structural rule was violated.
	Reason string

	// Ranks holds the rank values that were submitted, sorted ascending.
	Ranks []int
}

// Error implements the error interface for StructuralError.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural ranking error: %s (got ranks %v)", e.Reason, e.Ranks)
}

// NewStructuralError creates a StructuralError for the given submitted ranks.
func NewStructuralError(reason string, ranks []int) *StructuralError {
	sorted := make([]int, len(ranks))
	copy(sorted, ranks)
	sort.Ints(sorted)
	return &StructuralError{Reason: reason, Ranks: sorted}
}

// CountMismatchError reports a ranking response whose entry count does not
// match the number of players in the game.
type CountMismatchError struct {
	// Got is the number of entries the judge returned.
	Got int

	// Want is the expected player count.
	Want int
}

// Error implements the error interface for CountMismatchError.
func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("ranking count mismatch: got %d entries, want %d players", e.Got, e.Want)
}

// NameMismatchError reports every player-name discrepancy between a ranking
// response and the game's roster in a single failure. Unexpected lists names
// the judge invented, Missing lists roster names it omitted. Hints maps each
// unexpected name to the closest roster name by edit distance, when one is
// close enough to be a plausible misspelling.
type NameMismatchError struct {
	Unexpected []string
	Missing    []string
	Hints      map[string]string
}

// Error implements the error interface for NameMismatchError.
func (e *NameMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("ranking name mismatch")
	if len(e.Unexpected) > 0 {
		fmt.Fprintf(&b, ": unexpected names %v", e.Unexpected)
		for _, name := range e.Unexpected {
			if hint, ok := e.Hints[name]; ok {
				fmt.Fprintf(&b, " (%q: did you mean %q?)", name, hint)
			}
		}
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing names %v", e.Missing)
	}
	return b.String()
}

// DuplicateCriterionError reports an attempt to append a second result for a
// criterion that already exists in a GameResult. This is a caller bug, never
// retried.
type DuplicateCriterionError struct {
	// Criterion is the duplicated criterion name.
	Criterion string
}

// Error implements the error interface for DuplicateCriterionError.
func (e *DuplicateCriterionError) Error() string {
	return fmt.Sprintf("criterion %q already present in game result", e.Criterion)
}
