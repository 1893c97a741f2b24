package game

import (
	"math"
	"sort"
	"sync"
	"time"
)

// VoidView is a void as presented to the HUD, leaderboard and finalization.
// X and Z are plane coordinates.
type VoidView struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"name" msgpack:"name"`
	Color    string  `json:"color" msgpack:"color"`
	X        float64 `json:"x" msgpack:"x"`
	Z        float64 `json:"z" msgpack:"z"`
	Radius   float64 `json:"radius" msgpack:"radius"`
	Score    float64 `json:"score" msgpack:"score"`
	IsPlayer bool    `json:"isPlayer" msgpack:"isPlayer"`
}

// ObservableState is the presentation copy of every live void. It is written
// by the engine and read from any goroutine; it never shares memory with the
// registry.
type ObservableState struct {
	mu      sync.RWMutex
	views   map[string]VoidView
	version uint64
}

// NewObservableState creates an empty state
func NewObservableState() *ObservableState {
	return &ObservableState{views: make(map[string]VoidView)}
}

// Register adds or replaces the full view for a void
func (s *ObservableState) Register(view VoidView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[view.ID] = view
	s.version++
}

// Publish patches position, radius and score of a registered void. Radius and
// score never move backwards; a regression keeps the published value.
func (s *ObservableState) Publish(id string, x, z, radius, score float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[id]
	if !ok {
		return false
	}
	if checkInvariant(radius >= view.Radius && !math.IsNaN(radius), "published radius %v < %v for %s", radius, view.Radius, id) {
		view.Radius = radius
	}
	if checkInvariant(score >= view.Score && !math.IsNaN(score), "published score %v < %v for %s", score, view.Score, id) {
		view.Score = score
	}
	view.X, view.Z = x, z
	s.views[id] = view
	s.version++
	return true
}

// Remove drops id
func (s *ObservableState) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[id]; ok {
		delete(s.views, id)
		s.version++
	}
}

// Clear drops every view
func (s *ObservableState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.views)
	s.version++
}

// Get returns the view for id
func (s *ObservableState) Get(id string) (VoidView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	return v, ok
}

// Snapshot returns a copy of every view keyed by id
func (s *ObservableState) Snapshot() map[string]VoidView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]VoidView, len(s.views))
	for id, v := range s.views {
		out[id] = v
	}
	return out
}

// Len returns the number of views
func (s *ObservableState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// Version increases on every change. Broadcasters use it to skip idle frames.
func (s *ObservableState) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Leaderboard ranks every view by score
func (s *ObservableState) Leaderboard() []Standing {
	s.mu.RLock()
	views := make([]VoidView, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.mu.RUnlock()

	return rankViews(views)
}

// Standing is one row of the leaderboard
type Standing struct {
	Rank     int    `json:"rank" msgpack:"rank"`
	ID       string `json:"id" msgpack:"id"`
	Name     string `json:"name" msgpack:"name"`
	Color    string `json:"color" msgpack:"color"`
	Score    int    `json:"score" msgpack:"score"`
	IsPlayer bool   `json:"isPlayer" msgpack:"isPlayer"`
}

// MatchResult is the final standing of a finished match
type MatchResult struct {
	MatchID    string     `json:"matchId" msgpack:"matchId"`
	FinishedAt time.Time  `json:"finishedAt" msgpack:"finishedAt"`
	Duration   int        `json:"duration" msgpack:"duration"`
	Standings  []Standing `json:"standings" msgpack:"standings"`
	Winner     *Standing  `json:"winner,omitempty" msgpack:"winner,omitempty"`
	PlayerWon  bool       `json:"playerWon" msgpack:"playerWon"`
}

// rankViews sorts by score descending, then name and id for a stable order
func rankViews(views []VoidView) []Standing {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Score != views[j].Score {
			return views[i].Score > views[j].Score
		}
		if views[i].Name != views[j].Name {
			return views[i].Name < views[j].Name
		}
		return views[i].ID < views[j].ID
	})

	standings := make([]Standing, len(views))
	for i, v := range views {
		standings[i] = Standing{
			Rank:     i + 1,
			ID:       v.ID,
			Name:     v.Name,
			Color:    v.Color,
			Score:    int(math.Floor(v.Score)),
			IsPlayer: v.IsPlayer,
		}
	}
	return standings
}

func newMatchResult(matchID string, duration int, standings []Standing, at time.Time) MatchResult {
	result := MatchResult{
		MatchID:    matchID,
		FinishedAt: at,
		Duration:   duration,
		Standings:  standings,
	}
	if len(standings) > 0 {
		winner := standings[0]
		result.Winner = &winner
		result.PlayerWon = winner.IsPlayer
	}
	return result
}
