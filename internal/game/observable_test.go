package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservablePublishPatches(t *testing.T) {
	s := NewObservableState()
	s.Register(VoidView{ID: "a", Name: "A", Color: "#fff", Radius: 1.5})

	require.True(t, s.Publish("a", 4, -2, 2, 30))
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, VoidView{ID: "a", Name: "A", Color: "#fff", X: 4, Z: -2, Radius: 2, Score: 30}, got)

	assert.False(t, s.Publish("ghost", 0, 0, 1, 1))
	assert.Equal(t, 1, s.Len())
}

func TestObservableNeverRegresses(t *testing.T) {
	if debugInvariants {
		t.Skip("invariant violations panic in voiddebug builds")
	}
	s := NewObservableState()
	s.Register(VoidView{ID: "a", Radius: 3, Score: 50})

	s.Publish("a", 1, 1, 2, 10)
	got, _ := s.Get("a")
	assert.Equal(t, 3.0, got.Radius)
	assert.Equal(t, 50.0, got.Score)
	assert.Equal(t, 1.0, got.X, "position still updates")
}

func TestObservableSnapshotIsCopy(t *testing.T) {
	s := NewObservableState()
	s.Register(VoidView{ID: "a", Radius: 1})

	snap := s.Snapshot()
	snap["a"] = VoidView{ID: "a", Radius: 99}
	delete(snap, "a")

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, got.Radius)
}

func TestObservableVersion(t *testing.T) {
	s := NewObservableState()
	v0 := s.Version()
	s.Register(VoidView{ID: "a"})
	s.Publish("a", 1, 1, 0, 0)
	s.Remove("missing")
	assert.Equal(t, v0+2, s.Version())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Equal(t, v0+3, s.Version())
}

func TestLeaderboardOrdering(t *testing.T) {
	s := NewObservableState()
	s.Register(VoidView{ID: "ai-2", Name: "Bot Beta", Score: 120.9})
	s.Register(VoidView{ID: "player-1", Name: "YOU", Score: 340.2, IsPlayer: true})
	s.Register(VoidView{ID: "ai-1", Name: "Bot Alpha", Score: 120.9})
	s.Register(VoidView{ID: "ai-3", Name: "Bot Alpha", Score: 20})

	board := s.Leaderboard()
	require.Len(t, board, 4)

	ids := make([]string, len(board))
	for i, st := range board {
		ids[i] = st.ID
		assert.Equal(t, i+1, st.Rank)
	}
	assert.Equal(t, []string{"player-1", "ai-1", "ai-2", "ai-3"}, ids)
	assert.Equal(t, 340, board[0].Score, "scores are floored")
	assert.Equal(t, 120, board[1].Score)
}

func TestNewMatchResult(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	standings := []Standing{
		{Rank: 1, ID: "ai-1", Name: "Bot Alpha", Score: 90},
		{Rank: 2, ID: "player-1", Name: "YOU", Score: 40, IsPlayer: true},
	}

	result := newMatchResult("m-1", 120, standings, at)
	require.NotNil(t, result.Winner)
	assert.Equal(t, "ai-1", result.Winner.ID)
	assert.False(t, result.PlayerWon)
	assert.Equal(t, at, result.FinishedAt)

	empty := newMatchResult("m-2", 120, nil, at)
	assert.Nil(t, empty.Winner)
	assert.False(t, empty.PlayerWon)
}
