package application

import (
	"github.com/ahrav/go-tribunal/internal/domain"
)

// Aggregation is the batch-level aggregate artifact: mean rank and sample
// count per team per criterion, keyed by the criterion's human-readable
// description, plus a run summary. Its JSON shape is the external contract.
type Aggregation struct {
	TeamAverages     map[string]map[string]float64 `json:"team_averages"`
	TeamSampleCounts map[string]map[string]int     `json:"team_sample_counts"`
	Summary          AggregationSummary            `json:"summary"`
}

// AggregationSummary describes the batch run the aggregate was built from.
type AggregationSummary struct {
	TotalGamesProcessed int      `json:"total_games_processed"`
	TeamsFound          []string `json:"teams_found"`

	// CriteriaEvaluated lists criterion descriptions sorted by the
	// criteria's configured order.
	CriteriaEvaluated []string `json:"criteria_evaluated"`
}

// BuildAggregation folds the successful game results into a fresh
// TeamAggregate and projects the result for output: criterion names become
// descriptions (falling back to the raw name when undefined), ordered by the
// criteria's order field.
func BuildAggregation(results []*domain.GameResult, criteria domain.CriteriaSet) Aggregation {
	aggregate := domain.NewTeamAggregate()
	for _, result := range results {
		aggregate.AddGameResult(result)
	}

	descriptions := criteria.Descriptions()
	describe := func(name string) string {
		if d, ok := descriptions[name]; ok {
			return d
		}
		return name
	}

	sortedNames := criteria.SortNames(aggregate.Criteria())

	averages := make(map[string]map[string]float64)
	for team, byCriterion := range aggregate.TeamAverages() {
		averages[team] = make(map[string]float64, len(byCriterion))
		for name, avg := range byCriterion {
			averages[team][describe(name)] = avg
		}
	}

	counts := make(map[string]map[string]int)
	for team, byCriterion := range aggregate.TeamCounts() {
		counts[team] = make(map[string]int, len(byCriterion))
		for name, n := range byCriterion {
			counts[team][describe(name)] = n
		}
	}

	described := make([]string, 0, len(sortedNames))
	for _, name := range sortedNames {
		described = append(described, describe(name))
	}

	return Aggregation{
		TeamAverages:     averages,
		TeamSampleCounts: counts,
		Summary: AggregationSummary{
			TotalGamesProcessed: len(results),
			TeamsFound:          aggregate.Teams(),
			CriteriaEvaluated:   described,
		},
	}
}
