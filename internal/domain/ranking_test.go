package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesWithRanks(ranks ...int) []RankingEntry {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace"}
	entries := make([]RankingEntry, len(ranks))
	for i, r := range ranks {
		entries[i] = RankingEntry{
			PlayerName: names[i%len(names)],
			Rank:       r,
			Reasoning:  "because",
		}
	}
	return entries
}

func TestNewRankingResponse_RankContiguity(t *testing.T) {
	tests := []struct {
		name    string
		ranks   []int
		wantErr bool
	}{
		{name: "single entry", ranks: []int{1}, wantErr: false},
		{name: "three contiguous", ranks: []int{1, 2, 3}, wantErr: false},
		{name: "contiguous out of order", ranks: []int{3, 1, 2}, wantErr: false},
		{name: "duplicate rank", ranks: []int{1, 1, 2}, wantErr: true},
		{name: "gap in sequence", ranks: []int{1, 2, 4}, wantErr: true},
		{name: "does not start at one", ranks: []int{2, 3, 4}, wantErr: true},
		{name: "zero rank", ranks: []int{0, 1, 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewRankingResponse(entriesWithRanks(tt.ranks...))
			if tt.wantErr {
				require.Error(t, err)
				var structural *StructuralError
				assert.True(t, errors.As(err, &structural),
					"contiguity violations must surface as StructuralError")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.ranks), resp.Len())
		})
	}
}

func TestNewRankingResponse_Empty(t *testing.T) {
	_, err := NewRankingResponse(nil)
	require.ErrorIs(t, err, ErrEmptyRankings)
}

func TestNewRankingResponse_EntriesAreCopied(t *testing.T) {
	input := entriesWithRanks(1, 2)
	resp, err := NewRankingResponse(input)
	require.NoError(t, err)

	input[0].PlayerName = "Mallory"
	got := resp.Entries()
	assert.Equal(t, "Alice", got[0].PlayerName, "response must not alias caller's slice")

	got[1].Rank = 99
	assert.Equal(t, 2, resp.Entries()[1].Rank, "Entries must return a defensive copy")
}

func TestNewRankingResponseWithContext_CountMismatch(t *testing.T) {
	entries := []RankingEntry{
		{PlayerName: "Alice", Rank: 1, Reasoning: "r"},
		{PlayerName: "Bob", Rank: 2, Reasoning: "r"},
	}

	_, err := NewRankingResponseWithContext(entries, 3, []string{"Alice", "Bob", "Carol"})
	require.Error(t, err)

	var mismatch *CountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.Got)
	assert.Equal(t, 3, mismatch.Want)
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "3")
}

func TestNewRankingResponseWithContext_NameMismatchIsComplete(t *testing.T) {
	// Expected {Alice,Bob,Carol}, submitted {Alice,Bob,Dave}: one failure must
	// name Dave as unexpected AND Carol as missing.
	entries := []RankingEntry{
		{PlayerName: "Alice", Rank: 1, Reasoning: "r"},
		{PlayerName: "Bob", Rank: 2, Reasoning: "r"},
		{PlayerName: "Dave", Rank: 3, Reasoning: "r"},
	}

	_, err := NewRankingResponseWithContext(entries, 3, []string{"Alice", "Bob", "Carol"})
	require.Error(t, err)

	var mismatch *NameMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{"Dave"}, mismatch.Unexpected)
	assert.Equal(t, []string{"Carol"}, mismatch.Missing)
}

func TestNewRankingResponseWithContext_NameHints(t *testing.T) {
	entries := []RankingEntry{
		{PlayerName: "alice", Rank: 1, Reasoning: "r"},
		{PlayerName: "Bob", Rank: 2, Reasoning: "r"},
		{PlayerName: "Caroll", Rank: 3, Reasoning: "r"},
	}

	_, err := NewRankingResponseWithContext(entries, 3, []string{"Alice", "Bob", "Carol"})
	require.Error(t, err)

	var mismatch *NameMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "Alice", mismatch.Hints["alice"], "case-folded distance should suggest Alice")
	assert.Equal(t, "Carol", mismatch.Hints["Caroll"])
}

func TestNewRankingResponseWithContext_StructuralRunsAfterContext(t *testing.T) {
	// Correct names and count but duplicate ranks: the structural check must
	// still reject the response.
	entries := []RankingEntry{
		{PlayerName: "Alice", Rank: 1, Reasoning: "r"},
		{PlayerName: "Bob", Rank: 1, Reasoning: "r"},
		{PlayerName: "Carol", Rank: 2, Reasoning: "r"},
	}

	_, err := NewRankingResponseWithContext(entries, 3, []string{"Alice", "Bob", "Carol"})
	require.Error(t, err)

	var structural *StructuralError
	assert.True(t, errors.As(err, &structural))
}

func TestNewRankingResponseWithContext_Valid(t *testing.T) {
	entries := []RankingEntry{
		{PlayerName: "Carol", Rank: 3, Reasoning: "quiet"},
		{PlayerName: "Alice", Rank: 1, Reasoning: "persuasive"},
		{PlayerName: "Bob", Rank: 2, Reasoning: "steady"},
	}

	resp, err := NewRankingResponseWithContext(entries, 3, []string{"Alice", "Bob", "Carol"})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Len())
	assert.Equal(t, "Carol", resp.Entries()[0].PlayerName, "submission order is preserved")
}
