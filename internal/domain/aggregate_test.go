package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// singleGameResult builds the canonical three player, one criterion game:
// Alice(1, red), Bob(2, red), Carol(3, blue) on "persuasiveness".
func singleGameResult(t *testing.T) *GameResult {
	t.Helper()
	resp := mustResponse(t, []RankingEntry{
		{PlayerName: "Alice", Rank: 1, Reasoning: "r"},
		{PlayerName: "Bob", Rank: 2, Reasoning: "r"},
		{PlayerName: "Carol", Rank: 3, Reasoning: "r"},
	})
	cr := NewCriterionResult("persuasiveness", resp, map[string]string{
		"Alice": "red", "Bob": "red", "Carol": "blue",
	})
	gr := NewGameResult()
	require.NoError(t, gr.Append(cr))
	return gr
}

func TestTeamAggregate_SingleGameAverages(t *testing.T) {
	agg := NewTeamAggregate()
	agg.AddGameResult(singleGameResult(t))

	averages := agg.TeamAverages()
	counts := agg.TeamCounts()

	assert.InDelta(t, 1.5, averages["red"]["persuasiveness"], 1e-9, "(1+2)/2")
	assert.InDelta(t, 3.0, averages["blue"]["persuasiveness"], 1e-9)
	assert.Equal(t, 2, counts["red"]["persuasiveness"])
	assert.Equal(t, 1, counts["blue"]["persuasiveness"])
	assert.Equal(t, []string{"blue", "red"}, agg.Teams())
}

func TestTeamAggregate_RepeatedFoldScalesCountsNotAverages(t *testing.T) {
	// Folding the identical GameResult k times multiplies every count by k
	// and leaves every average unchanged.
	for _, k := range []int{1, 2, 5, 10} {
		agg := NewTeamAggregate()
		gr := singleGameResult(t)
		for i := 0; i < k; i++ {
			agg.AddGameResult(gr)
		}

		averages := agg.TeamAverages()
		counts := agg.TeamCounts()

		assert.InDelta(t, 1.5, averages["red"]["persuasiveness"], 1e-9, "k=%d", k)
		assert.InDelta(t, 3.0, averages["blue"]["persuasiveness"], 1e-9, "k=%d", k)
		assert.Equal(t, 2*k, counts["red"]["persuasiveness"], "k=%d", k)
		assert.Equal(t, 1*k, counts["blue"]["persuasiveness"], "k=%d", k)
	}
}

func TestTeamAggregate_ZeroEntriesSentinel(t *testing.T) {
	// Team "blue" never accumulates "deception" entries; its average must be
	// exactly 0.0 (impossible as a real mean since ranks are >= 1).
	respA := mustResponse(t, []RankingEntry{
		{PlayerName: "Alice", Rank: 1, Reasoning: "r"},
		{PlayerName: "Bob", Rank: 2, Reasoning: "r"},
	})
	respB := mustResponse(t, []RankingEntry{
		{PlayerName: "Carol", Rank: 1, Reasoning: "r"},
	})

	grA := NewGameResult()
	require.NoError(t, grA.Append(NewCriterionResult("deception", respA, map[string]string{
		"Alice": "red", "Bob": "red",
	})))
	grB := NewGameResult()
	require.NoError(t, grB.Append(NewCriterionResult("persuasiveness", respB, map[string]string{
		"Carol": "blue",
	})))

	agg := NewTeamAggregate()
	agg.AddGameResult(grA)
	agg.AddGameResult(grB)

	averages := agg.TeamAverages()
	counts := agg.TeamCounts()

	assert.Zero(t, averages["blue"]["deception"])
	assert.Zero(t, counts["blue"]["deception"])
	assert.Zero(t, averages["red"]["persuasiveness"])

	// Real data stays distinguishable from the sentinel.
	assert.InDelta(t, 1.5, averages["red"]["deception"], 1e-9)
	assert.InDelta(t, 1.0, averages["blue"]["persuasiveness"], 1e-9)
	assert.Equal(t, []string{"deception", "persuasiveness"}, agg.Criteria())
}

func TestTeamAggregate_EmptyAggregate(t *testing.T) {
	agg := NewTeamAggregate()
	assert.Empty(t, agg.TeamAverages())
	assert.Empty(t, agg.TeamCounts())
	assert.Empty(t, agg.Teams())
	assert.Empty(t, agg.Criteria())
}
