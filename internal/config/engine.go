package config

import (
	"gonum.org/v1/gonum/spatial/r2"

	"urban-void/internal/game"
	"urban-void/internal/world"
)

// EngineConfig converts the match, arena and simulation sections into engine
// settings, attaching the city generator when it is enabled.
func (c AppConfig) EngineConfig() game.EngineConfig {
	roster := make([]game.VoidSpec, len(c.Match.Roster))
	for i, r := range c.Match.Roster {
		roster[i] = game.VoidSpec{
			ID:       r.ID,
			Name:     r.Name,
			Color:    r.Color,
			IsPlayer: r.Player,
			Position: r2.Vec{X: r.X, Y: r.Z},
		}
	}

	cfg := game.EngineConfig{
		Boundary:      c.Arena.Boundary,
		MatchDuration: c.Match.Duration,
		PublishEvery:  c.Simulation.PublishEvery,
		Seed:          c.Simulation.Seed,
		Roster:        roster,
	}
	if c.Arena.CityEnabled {
		cfg.World = world.NewCity(c.Arena.City)
	}
	return cfg
}
