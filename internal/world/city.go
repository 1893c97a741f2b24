// Package world generates the objects a match is played on.
package world

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"urban-void/internal/game"
)

// CityConfig shapes the procedural city. Every block is either a building lot
// or a park; cars sit on road lanes and debris is scattered everywhere.
type CityConfig struct {
	GridSize  float64 `yaml:"grid_size"`  // City width and depth
	BlockSize float64 `yaml:"block_size"` // Lot edge length
	RoadWidth float64 `yaml:"road_width"` // Gap between lots

	BuildingChance float64 `yaml:"building_chance"` // Probability a lot holds a building
	TallChance     float64 `yaml:"tall_chance"`     // Probability a building is tall
	PropsPerLot    int     `yaml:"props_per_lot"`   // Crates and barrels around each building
	TreesPerPark   int     `yaml:"trees_per_park"`
	Cars           int     `yaml:"cars"`
	Lanes          int     `yaml:"lanes"` // Lanes per axis
	Debris         int     `yaml:"debris"`
	DebrisSpread   float64 `yaml:"debris_spread"` // Debris lies in a square this wide
}

// DefaultCity returns the standard downtown layout
func DefaultCity() CityConfig {
	return CityConfig{
		GridSize:       200,
		BlockSize:      20,
		RoadWidth:      8,
		BuildingChance: 0.9,
		TallChance:     0.3,
		PropsPerLot:    3,
		TreesPerPark:   5,
		Cars:           40,
		Lanes:          10,
		Debris:         100,
		DebrisSpread:   180,
	}
}

// Object footprints and rewards
const (
	tallSize, tallValue       = 3.0, 50.0
	lowSize, lowValue         = 2.5, 20.0
	propSize, propValue       = 0.5, 2.0
	treeMinSize, treeSizeSpan = 0.8, 0.5
	treeValue                 = 5.0
	carSize, carValue         = 1.0, 10.0
	debrisSize, debrisValue   = 0.4, 1.0
)

// City is a seeded city generator
type City struct {
	cfg CityConfig
}

// NewCity creates a generator. Non-positive dimensions fall back to defaults.
func NewCity(cfg CityConfig) *City {
	def := DefaultCity()
	if cfg.GridSize <= 0 {
		cfg.GridSize = def.GridSize
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = def.BlockSize
	}
	if cfg.RoadWidth < 0 {
		cfg.RoadWidth = def.RoadWidth
	}
	if cfg.Lanes <= 0 {
		cfg.Lanes = def.Lanes
	}
	return &City{cfg: cfg}
}

// Config returns the effective layout
func (c *City) Config() CityConfig {
	return c.cfg
}

// Generate lays out the city. The same rng state yields the same city.
func (c *City) Generate(rng *rand.Rand) []game.ConsumableSpec {
	cfg := c.cfg
	var specs []game.ConsumableSpec
	next := 0
	add := func(prefix string, kind game.Kind, pos r2.Vec, size, value float64) {
		specs = append(specs, game.ConsumableSpec{
			ID:       fmt.Sprintf("%s-%d", prefix, next),
			Kind:     kind,
			Position: pos,
			Size:     size,
			Value:    value,
		})
		next++
	}

	half := cfg.GridSize / 2
	step := cfg.BlockSize + cfg.RoadWidth
	for x := -half; x < half; x += step {
		for z := -half; z < half; z += step {
			if rng.Float64() < cfg.BuildingChance {
				c.buildingLot(rng, x, z, add)
			} else {
				c.park(rng, x, z, add)
			}
		}
	}

	for i := 0; i < cfg.Cars; i++ {
		lane := float64(rng.Intn(cfg.Lanes)-cfg.Lanes/2) * step
		along := rng.Float64()*cfg.GridSize - half
		pos := r2.Vec{X: along, Y: lane}
		if rng.Float64() >= 0.5 {
			pos = r2.Vec{X: lane, Y: along}
		}
		add("c", game.KindCar, pos, carSize, carValue)
	}

	for i := 0; i < cfg.Debris; i++ {
		pos := r2.Vec{
			X: (rng.Float64() - 0.5) * cfg.DebrisSpread,
			Y: (rng.Float64() - 0.5) * cfg.DebrisSpread,
		}
		add("d", game.KindCrate, pos, debrisSize, debrisValue)
	}
	return specs
}

type addFunc func(prefix string, kind game.Kind, pos r2.Vec, size, value float64)

// buildingLot places one building at the lot center with props scattered
// across the lot.
func (c *City) buildingLot(rng *rand.Rand, x, z float64, add addFunc) {
	center := r2.Vec{X: x + c.cfg.BlockSize/2, Y: z + c.cfg.BlockSize/2}
	if rng.Float64() < c.cfg.TallChance {
		add("b", game.KindBuilding, center, tallSize, tallValue)
	} else {
		add("b", game.KindBuilding, center, lowSize, lowValue)
	}

	for i := 0; i < c.cfg.PropsPerLot; i++ {
		kind := game.KindCrate
		if rng.Float64() < 0.5 {
			kind = game.KindBarrel
		}
		pos := r2.Vec{X: x + rng.Float64()*c.cfg.BlockSize, Y: z + rng.Float64()*c.cfg.BlockSize}
		add("p", kind, pos, propSize, propValue)
	}
}

func (c *City) park(rng *rand.Rand, x, z float64, add addFunc) {
	for i := 0; i < c.cfg.TreesPerPark; i++ {
		pos := r2.Vec{X: x + rng.Float64()*c.cfg.BlockSize, Y: z + rng.Float64()*c.cfg.BlockSize}
		size := treeMinSize + rng.Float64()*treeSizeSpan
		add("t", game.KindTree, pos, size, treeValue)
	}
}

// Lots returns how many lots fit along one axis
func (c *City) Lots() int {
	step := c.cfg.BlockSize + c.cfg.RoadWidth
	return int(math.Ceil(c.cfg.GridSize / step))
}
