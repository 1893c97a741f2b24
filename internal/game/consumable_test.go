package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func newCrate(id string, pos r2.Vec, size float64) *Consumable {
	return NewConsumable(ConsumableSpec{ID: id, Kind: KindCrate, Position: pos, Size: size, Value: 2})
}

func TestConsumableThresholds(t *testing.T) {
	hole := []RegistryEntry{{ID: "v", Radius: 5}}

	tests := []struct {
		name       string
		pos        r2.Vec
		size       float64
		wantEaten  bool
		wantPulled bool
	}{
		// R=5, size=2: swallow needs dist < 4, pull needs dist < 7
		{"deep inside", r2.Vec{X: 3}, 2, true, false},
		{"on swallow edge", r2.Vec{X: 4}, 2, false, true},
		{"rim overlap", r2.Vec{X: 4.5}, 2, false, true},
		{"just outside pull", r2.Vec{X: 7}, 2, false, false},
		{"too large to swallow", r2.Vec{}, 4.5, false, true},
		{"as large as the hole", r2.Vec{}, 5, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCrate("c", tt.pos, tt.size)
			in := c.Interact(hole)

			assert.Equal(t, tt.wantEaten, in.ConsumedBy != "")
			assert.Equal(t, tt.wantEaten, c.Consumed())
			assert.Equal(t, tt.wantPulled, in.Pulled)
		})
	}
}

func TestConsumablePullPointsAtCenter(t *testing.T) {
	c := newCrate("c", r2.Vec{X: 4.5}, 2)
	in := c.Interact([]RegistryEntry{{ID: "v", Radius: 5}})

	require.True(t, in.Pulled)
	assert.InDelta(t, -PullForce, in.Pull.X, 1e-9)
	assert.InDelta(t, 0, in.Pull.Y, 1e-9)
	assert.False(t, c.Consumed(), "attraction never consumes")
}

func TestConsumablePullsSum(t *testing.T) {
	c := newCrate("c", r2.Vec{}, 1)
	entries := []RegistryEntry{
		{ID: "left", Position: r2.Vec{X: -2}, Radius: 1.5},
		{ID: "right", Position: r2.Vec{X: 2}, Radius: 1.5},
		{ID: "up", Position: r2.Vec{Y: 2}, Radius: 1.5},
	}
	in := c.Interact(entries)

	require.True(t, in.Pulled)
	assert.InDelta(t, 0, in.Pull.X, 1e-9)
	assert.InDelta(t, PullForce, in.Pull.Y, 1e-9)
}

func TestConsumableFirstMatchWins(t *testing.T) {
	c := newCrate("c", r2.Vec{}, 1)
	in := c.Interact([]RegistryEntry{
		{ID: "first", Radius: 5},
		{ID: "second", Radius: 10},
	})

	assert.Equal(t, "first", in.ConsumedBy)
	assert.Equal(t, "first", c.View().ConsumedBy)
}

func TestConsumableConsumedOnce(t *testing.T) {
	c := newCrate("c", r2.Vec{}, 1)
	hole := []RegistryEntry{{ID: "v", Radius: 5}}

	first := c.Interact(hole)
	require.Equal(t, "v", first.ConsumedBy)

	for i := 0; i < 5; i++ {
		again := c.Interact(hole)
		assert.Empty(t, again.ConsumedBy)
		assert.False(t, again.Pulled)
	}
}

func TestConsumableDrift(t *testing.T) {
	c := newCrate("c", r2.Vec{}, 1)
	c.Drift(r2.Vec{X: 10}, 0.1)

	// v = 10*0.1 = 1, drag leaves 1*(1-0.4)
	assert.InDelta(t, 0.6, c.Velocity.X, 1e-9)
	assert.InDelta(t, 0.06, c.Position.X, 1e-9)

	for i := 0; i < 200; i++ {
		c.Drift(r2.Vec{}, 0.1)
	}
	assert.Equal(t, r2.Vec{}, c.Velocity, "unforced object settles")
}

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindCrate, KindBarrel, KindTree, KindCar, KindBuilding, KindLamp} {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseKind("spaceship")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Kind(99).String())
}
