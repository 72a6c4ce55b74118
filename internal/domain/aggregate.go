package domain

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// TeamAggregate folds many GameResults into team → criterion → accumulated
// entries. It is append-only during the fold phase; the two projections
// compute their views on demand from the raw entries rather than keeping
// running state, which keeps a full-pass fold trivially correct for a
// bounded batch.
//
// A TeamAggregate is owned by a single goroutine for its whole lifetime and
// is deliberately not safe for concurrent use.
type TeamAggregate struct {
	entries map[string]map[string][]RankedPlayer

	// criteria remembers every criterion name seen across all teams so the
	// projections can report the zero-entries sentinel for teams that never
	// accumulated a given criterion.
	criteria map[string]bool
}

// NewTeamAggregate returns an empty aggregate ready for folding.
func NewTeamAggregate() *TeamAggregate {
	return &TeamAggregate{
		entries:  make(map[string]map[string][]RankedPlayer),
		criteria: make(map[string]bool),
	}
}

// AddGameResult appends every ranked player of every criterion result under
// its team and criterion. Pure append; nothing is ever overwritten.
func (a *TeamAggregate) AddGameResult(result *GameResult) {
	for _, cr := range result.Results() {
		a.criteria[cr.Criterion] = true
		for _, player := range cr.Players {
			a.appendEntry(player.Team, cr.Criterion, player)
		}
	}
}

// appendEntry appends one entry under the team/criterion pair, creating the
// nested containers on first use. Every mutation of the aggregate funnels
// through here.
func (a *TeamAggregate) appendEntry(team, criterion string, player RankedPlayer) {
	byCriterion, ok := a.entries[team]
	if !ok {
		byCriterion = make(map[string][]RankedPlayer)
		a.entries[team] = byCriterion
	}
	byCriterion[criterion] = append(byCriterion[criterion], player)
}

// TeamAverages computes the arithmetic mean rank for every team/criterion
// pair. Pairs with zero accumulated entries report exactly 0.0; since ranks
// are always >= 1 a legitimate average can never be 0.0, so the zero value
// is an unambiguous "no data" sentinel.
func (a *TeamAggregate) TeamAverages() map[string]map[string]float64 {
	averages := make(map[string]map[string]float64, len(a.entries))
	for team, byCriterion := range a.entries {
		averages[team] = make(map[string]float64, len(a.criteria))
		for criterion := range a.criteria {
			players := byCriterion[criterion]
			if len(players) == 0 {
				averages[team][criterion] = 0.0
				continue
			}
			ranks := make([]float64, 0, len(players))
			for _, p := range players {
				ranks = append(ranks, float64(p.Rank))
			}
			mean, err := stats.Mean(ranks)
			if err != nil {
				// Unreachable with a non-empty sample; keep the sentinel.
				mean = 0.0
			}
			averages[team][criterion] = mean
		}
	}
	return averages
}

// TeamCounts reports the raw sample count for every team/criterion pair,
// mirroring the structure of TeamAverages.
func (a *TeamAggregate) TeamCounts() map[string]map[string]int {
	counts := make(map[string]map[string]int, len(a.entries))
	for team, byCriterion := range a.entries {
		counts[team] = make(map[string]int, len(a.criteria))
		for criterion := range a.criteria {
			counts[team][criterion] = len(byCriterion[criterion])
		}
	}
	return counts
}

// Teams returns the accumulated team names sorted ascending.
func (a *TeamAggregate) Teams() []string {
	teams := make([]string, 0, len(a.entries))
	for team := range a.entries {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}

// Criteria returns every criterion name seen during folding, sorted
// ascending.
func (a *TeamAggregate) Criteria() []string {
	names := make([]string, 0, len(a.criteria))
	for name := range a.criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
