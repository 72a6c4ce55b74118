package domain

// UnknownTeam is the sentinel team attached to players that are absent from
// the agent-to-team mapping. Team enrichment is best effort; a lookup miss is
// degraded data, not an error.
const UnknownTeam = "unknown"

// RankedPlayer is one ranking entry enriched with the player's team
// affiliation. It is the element type of a CriterionResult.
type RankedPlayer struct {
	PlayerName string `json:"player_name"`
	Team       string `json:"team"`
	Rank       int    `json:"ranking"`
	Reasoning  string `json:"reasoning"`
}

// CriterionResult is one criterion's validated rankings for one game, each
// entry tagged with the player's team. Write-once.
type CriterionResult struct {
	// Criterion is the criterion name this result belongs to.
	Criterion string

	// Players holds the team-enriched entries in the response's order.
	Players []RankedPlayer
}

// NewCriterionResult attaches team affiliations to a validated response.
// Players missing from agentToTeam are tagged UnknownTeam.
func NewCriterionResult(
	criterion string,
	response RankingResponse,
	agentToTeam map[string]string,
) CriterionResult {
	entries := response.Entries()
	players := make([]RankedPlayer, 0, len(entries))
	for _, e := range entries {
		team, ok := agentToTeam[e.PlayerName]
		if !ok {
			team = UnknownTeam
		}
		players = append(players, RankedPlayer{
			PlayerName: e.PlayerName,
			Team:       team,
			Rank:       e.Rank,
			Reasoning:  e.Reasoning,
		})
	}
	return CriterionResult{Criterion: criterion, Players: players}
}

// GameResult is the ordered collection of one game's criterion results. It
// wraps the underlying slice and exposes only vetted operations so the
// no-duplicate-criterion invariant cannot be bypassed. Order is insertion
// order and nothing else; callers needing determinism sort criterion names
// downstream.
type GameResult struct {
	results []CriterionResult
	index   map[string]int
}

// NewGameResult returns an empty GameResult.
func NewGameResult() *GameResult {
	return &GameResult{index: make(map[string]int)}
}

// Append adds a criterion result, preserving insertion order. It fails with a
// DuplicateCriterionError when the criterion name is already present, leaving
// the collection unchanged.
func (g *GameResult) Append(result CriterionResult) error {
	if _, exists := g.index[result.Criterion]; exists {
		return &DuplicateCriterionError{Criterion: result.Criterion}
	}
	g.index[result.Criterion] = len(g.results)
	g.results = append(g.results, result)
	return nil
}

// ByName returns the result for the named criterion.
func (g *GameResult) ByName(criterion string) (CriterionResult, error) {
	i, ok := g.index[criterion]
	if !ok {
		return CriterionResult{}, ErrCriterionNotFound
	}
	return g.results[i], nil
}

// Has reports whether a result exists for the named criterion.
func (g *GameResult) Has(criterion string) bool {
	_, ok := g.index[criterion]
	return ok
}

// Names returns the criterion names in insertion order.
func (g *GameResult) Names() []string {
	names := make([]string, 0, len(g.results))
	for _, r := range g.results {
		names = append(names, r.Criterion)
	}
	return names
}

// Results returns a copy of the criterion results in insertion order.
func (g *GameResult) Results() []CriterionResult {
	out := make([]CriterionResult, len(g.results))
	copy(out, g.results)
	return out
}

// Len returns the number of criterion results.
func (g *GameResult) Len() int { return len(g.results) }
