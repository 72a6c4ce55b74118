package domain

import (
	"fmt"
	"sort"
)

// RankingType distinguishes how a criterion's ranks were produced.
type RankingType string

const (
	// RankingOrdinal means players are placed 1st, 2nd, 3rd and so on.
	RankingOrdinal RankingType = "ordinal"

	// RankingComparative means players are ordered by pairwise comparison.
	RankingComparative RankingType = "comparative"
)

// ParseRankingType converts a configuration string into a RankingType.
func ParseRankingType(s string) (RankingType, error) {
	switch RankingType(s) {
	case RankingOrdinal, RankingComparative:
		return RankingType(s), nil
	}
	return "", fmt.Errorf("%w: unknown ranking type %q", ErrInvalidCriterion, s)
}

// CriterionCategory groups criteria by where they apply.
type CriterionCategory string

const (
	// CategoryCommon criteria apply across game formats.
	CategoryCommon CriterionCategory = "common"

	// CategoryGameSpecific criteria are tied to one player count.
	CategoryGameSpecific CriterionCategory = "game_specific"
)

// DefaultCriterionOrder is the effective output position of a criterion with
// no configured order. 999 sorts after anything an operator would configure.
const DefaultCriterionOrder = 999

// Criterion is one named dimension along which the judge ranks all players of
// a game.
type Criterion struct {
	// Name uniquely identifies the criterion within a run.
	Name string

	// Description is the human-readable text shown to the judge and used as
	// the column label in aggregate artifacts.
	Description string

	// RankingType indicates ordinal or comparative ranking semantics.
	RankingType RankingType

	// ApplicableCounts lists the player counts this criterion applies to.
	ApplicableCounts []int

	// Order positions the criterion in projected output; lower comes first.
	Order int

	// Category records whether the criterion is common or game specific.
	Category CriterionCategory
}

// AppliesTo reports whether the criterion evaluates games with the given
// player count.
func (c Criterion) AppliesTo(playerCount int) bool {
	for _, n := range c.ApplicableCounts {
		if n == playerCount {
			return true
		}
	}
	return false
}

// CriteriaSet is the full criteria configuration for a run.
type CriteriaSet []Criterion

// ForPlayerCount returns the criteria applicable to a game with the given
// player count, preserving configuration order.
func (s CriteriaSet) ForPlayerCount(playerCount int) CriteriaSet {
	var out CriteriaSet
	for _, c := range s {
		if c.AppliesTo(playerCount) {
			out = append(out, c)
		}
	}
	return out
}

// ByName returns the named criterion among those applicable to the player
// count.
func (s CriteriaSet) ByName(name string, playerCount int) (Criterion, error) {
	for _, c := range s.ForPlayerCount(playerCount) {
		if c.Name == name {
			return c, nil
		}
	}
	return Criterion{}, fmt.Errorf("%w: %q for %d players", ErrCriterionNotFound, name, playerCount)
}

// Descriptions maps criterion names to their descriptions for output
// projection.
func (s CriteriaSet) Descriptions() map[string]string {
	out := make(map[string]string, len(s))
	for _, c := range s {
		out[c.Name] = c.Description
	}
	return out
}

// SortNames orders criterion names by their configured order, ties broken by
// original position (stable). Names absent from the set sort last with
// DefaultCriterionOrder.
func (s CriteriaSet) SortNames(names []string) []string {
	orders := make(map[string]int, len(s))
	for _, c := range s {
		orders[c.Name] = c.Order
	}

	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, ok := orders[sorted[i]]
		if !ok {
			oi = DefaultCriterionOrder
		}
		oj, ok := orders[sorted[j]]
		if !ok {
			oj = DefaultCriterionOrder
		}
		return oi < oj
	})
	return sorted
}
