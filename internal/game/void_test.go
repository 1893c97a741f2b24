package game

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

const dt60 = 1.0 / 60

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestNewVoidDefaults(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "p", Name: "YOU", IsPlayer: true, Position: r2.Vec{X: 3, Y: 4}})

	assert.Equal(t, RolePlayer, v.Role)
	assert.Equal(t, StartRadius, v.Radius)
	assert.Zero(t, v.Score)
	assert.Equal(t, r2.Vec{X: 3, Y: 4}, v.Position)

	bot := NewVoid(VoidSpec{ID: "b"})
	assert.Equal(t, RoleAutonomous, bot.Role)
	assert.Equal(t, "AUTONOMOUS", bot.Role.String())
}

func TestPlayerSteering(t *testing.T) {
	tests := []struct {
		name    string
		aim     *r2.Vec
		wantVel r2.Vec
	}{
		{"no aim point", nil, r2.Vec{}},
		{"inside deadzone", &r2.Vec{X: 0.4}, r2.Vec{}},
		{"on deadzone edge", &r2.Vec{X: 0.5}, r2.Vec{}},
		// desired (12,0) blended by min(1, dt*3) = 0.05
		{"far aim", &r2.Vec{X: 10}, r2.Vec{X: 0.6}},
		{"far aim on z", &r2.Vec{Y: -20}, r2.Vec{Y: -0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVoid(VoidSpec{ID: "p", IsPlayer: true})
			v.Step(dt60, tt.aim, nil, newTestRNG(), DefaultBoundary)

			assert.InDelta(t, tt.wantVel.X, v.Velocity.X, 1e-9)
			assert.InDelta(t, tt.wantVel.Y, v.Velocity.Y, 1e-9)
			assert.InDelta(t, tt.wantVel.X*dt60, v.Position.X, 1e-9)
			assert.InDelta(t, tt.wantVel.Y*dt60, v.Position.Y, 1e-9)
		})
	}
}

func TestPlayerSpeedConvergesToMax(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "p", IsPlayer: true})
	aim := r2.Vec{X: 1000}
	for i := 0; i < 600; i++ {
		v.Step(dt60, &aim, nil, newTestRNG(), 2000)
	}
	assert.InDelta(t, MaxSpeed, r2.Norm(v.Velocity), 1e-6)
}

func TestLargeTimestepSnapsToDesired(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "p", IsPlayer: true})
	aim := r2.Vec{X: 50}
	v.Step(1, &aim, nil, newTestRNG(), DefaultBoundary)
	assert.InDelta(t, MaxSpeed, v.Velocity.X, 1e-9)
}

func TestReflectAtBoundary(t *testing.T) {
	tests := []struct {
		name string
		pos  r2.Vec
		vel  r2.Vec
		want r2.Vec
	}{
		{"inside", r2.Vec{X: 10}, r2.Vec{X: 3, Y: -2}, r2.Vec{X: 3, Y: -2}},
		{"past +x moving out", r2.Vec{X: 96}, r2.Vec{X: 3}, r2.Vec{X: -3}},
		{"past +x already returning", r2.Vec{X: 96}, r2.Vec{X: -3}, r2.Vec{X: -3}},
		{"past -x", r2.Vec{X: -96}, r2.Vec{X: -4}, r2.Vec{X: 4}},
		{"past +z", r2.Vec{Y: 100}, r2.Vec{Y: 1}, r2.Vec{Y: -1}},
		{"past -z", r2.Vec{Y: -95.5}, r2.Vec{Y: -2}, r2.Vec{Y: 2}},
		{"corner", r2.Vec{X: 99, Y: -99}, r2.Vec{X: 1, Y: -1}, r2.Vec{X: -1, Y: 1}},
		{"on boundary", r2.Vec{X: 95}, r2.Vec{X: 3}, r2.Vec{X: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reflectAtBoundary(tt.pos, tt.vel, DefaultBoundary))
		})
	}
}

func TestStepReflectsPastBoundary(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "p", IsPlayer: true, Position: r2.Vec{X: 96}})
	v.Velocity = r2.Vec{X: 3}

	v.Step(dt60, nil, nil, newTestRNG(), DefaultBoundary)

	assert.Less(t, v.Velocity.X, 0.0)
	assert.Less(t, v.Position.X, 96.0)
}

func TestAutonomousDecision(t *testing.T) {
	self := RegistryEntry{ID: "bot", Radius: StartRadius}

	tests := []struct {
		name       string
		others     []RegistryEntry
		wantFlee   bool
		wantTarget r2.Vec
	}{
		{"alone wanders", nil, false, r2.Vec{}},
		{"smaller void ignored", []RegistryEntry{{ID: "x", Position: r2.Vec{X: 2}, Radius: 1}}, false, r2.Vec{}},
		{"equal void ignored", []RegistryEntry{{ID: "x", Position: r2.Vec{X: 2}, Radius: StartRadius}}, false, r2.Vec{}},
		{"larger but far", []RegistryEntry{{ID: "x", Position: r2.Vec{X: 10}, Radius: 5}}, false, r2.Vec{}},
		{"larger and near", []RegistryEntry{{ID: "x", Position: r2.Vec{X: 5}, Radius: 3}}, true, r2.Vec{X: -20}},
		{"nearest threat wins", []RegistryEntry{
			{ID: "far", Position: r2.Vec{X: 8}, Radius: 9},
			{ID: "near", Position: r2.Vec{Y: 3}, Radius: 2},
		}, true, r2.Vec{Y: -20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVoid(VoidSpec{ID: "bot"})
			perception := append([]RegistryEntry{self}, tt.others...)
			v.Step(dt60, nil, perception, newTestRNG(), DefaultBoundary)

			if tt.wantFlee {
				assert.Equal(t, BehaviorFlee, v.Behavior)
				assert.InDelta(t, tt.wantTarget.X, v.Target.X, 1e-9)
				assert.InDelta(t, tt.wantTarget.Y, v.Target.Y, 1e-9)
				return
			}
			assert.Equal(t, BehaviorWander, v.Behavior)
			assert.InDelta(t, WanderRadius, r2.Norm(v.Target), 1e-9)
		})
	}
}

func TestFleeFromSameCenterPicksADirection(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "bot"})
	perception := []RegistryEntry{{ID: "big", Radius: 10}}

	v.Step(dt60, nil, perception, newTestRNG(), DefaultBoundary)

	assert.Equal(t, BehaviorFlee, v.Behavior)
	assert.InDelta(t, FleeDistance, r2.Norm(v.Target), 1e-9)
}

func TestDecisionTimer(t *testing.T) {
	rng := newTestRNG()
	for i := 0; i < 50; i++ {
		v := NewVoid(VoidSpec{ID: "bot"})
		v.Step(dt60, nil, nil, rng, DefaultBoundary)
		assert.GreaterOrEqual(t, v.decisionTimer, DecisionIntervalMin)
		assert.Less(t, v.decisionTimer, DecisionIntervalMax)
	}

	// Between decisions the target holds even if a threat appears
	v := NewVoid(VoidSpec{ID: "bot"})
	v.Step(dt60, nil, nil, rng, DefaultBoundary)
	target := v.Target
	v.Step(dt60, nil, []RegistryEntry{{ID: "big", Position: r2.Vec{X: 1}, Radius: 9}}, rng, DefaultBoundary)
	assert.Equal(t, target, v.Target)
	assert.Equal(t, BehaviorWander, v.Behavior)
}

func TestAutonomousSpeedCap(t *testing.T) {
	rng := newTestRNG()
	v := NewVoid(VoidSpec{ID: "bot"})
	for i := 0; i < 1200; i++ {
		v.Step(dt60, nil, nil, rng, DefaultBoundary)
		require.LessOrEqual(t, r2.Norm(v.Velocity), MaxSpeed*AutonomousSpeedFactor+1e-9)
	}
}

func TestApplyGrowth(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "p"})
	v.Radius = 3

	require.True(t, v.ApplyGrowth(5, 2))
	assert.InDelta(t, 50.0, v.Score, 1e-9)
	assert.InDelta(t, math.Sqrt(11), v.Radius, 1e-9)

	// Zero-value object still grows the radius
	before := v.Radius
	require.True(t, v.ApplyGrowth(0, 1))
	assert.Greater(t, v.Radius, before)
	assert.InDelta(t, 50.0, v.Score, 1e-9)
}

func TestApplyGrowthFromStartRadius(t *testing.T) {
	v := NewVoid(VoidSpec{ID: "p"})
	require.Equal(t, StartRadius, v.Radius)

	require.True(t, v.ApplyGrowth(5, 5))
	assert.InDelta(t, 50.0, v.Score, 1e-9)
	assert.InDelta(t, math.Sqrt(14.75), v.Radius, 1e-9)
	assert.InDelta(t, 3.8406, v.Radius, 1e-4)
}

func TestApplyGrowthRejectsInvalidInput(t *testing.T) {
	if debugInvariants {
		t.Skip("invariant violations panic in voiddebug builds")
	}
	tests := []struct {
		name        string
		value, size float64
	}{
		{"negative value", -1, 0},
		{"NaN value", math.NaN(), 0},
		{"NaN size", 0, math.NaN()},
		{"infinite size", 0, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVoid(VoidSpec{ID: "p"})
			assert.False(t, v.ApplyGrowth(tt.value, tt.size))
			assert.Equal(t, StartRadius, v.Radius)
			assert.Zero(t, v.Score)
		})
	}
}

func TestApplyGrowthIsMonotonic(t *testing.T) {
	rng := newTestRNG()
	v := NewVoid(VoidSpec{ID: "p"})
	for i := 0; i < 1000; i++ {
		r, s := v.Radius, v.Score
		v.ApplyGrowth(rng.Float64()*50, rng.Float64()*3)
		require.GreaterOrEqual(t, v.Radius, r)
		require.GreaterOrEqual(t, v.Score, s)
	}
}
