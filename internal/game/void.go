package game

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Role distinguishes the input-driven void from bots
type Role int

const (
	RolePlayer Role = iota
	RoleAutonomous
)

func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "PLAYER"
	case RoleAutonomous:
		return "AUTONOMOUS"
	default:
		return "UNKNOWN"
	}
}

// Behavior is the current decision of an autonomous void
type Behavior int

const (
	BehaviorWander Behavior = iota
	BehaviorFlee
)

func (b Behavior) String() string {
	switch b {
	case BehaviorWander:
		return "WANDER"
	case BehaviorFlee:
		return "FLEE"
	default:
		return "UNKNOWN"
	}
}

// VoidSpec describes a void to spawn
type VoidSpec struct {
	ID       string
	Name     string
	Color    string
	IsPlayer bool
	Position r2.Vec
}

// Void is a moving hole on the arena plane. Only the engine mutates it.
type Void struct {
	ID    string
	Name  string
	Color string
	Role  Role

	Position r2.Vec
	Velocity r2.Vec
	Radius   float64
	Score    float64

	// Autonomous state
	Behavior      Behavior
	Target        r2.Vec
	decisionTimer float64 // seconds until the next re-evaluation
}

// NewVoid creates a void at its spawn point with the starting radius
func NewVoid(spec VoidSpec) *Void {
	role := RoleAutonomous
	if spec.IsPlayer {
		role = RolePlayer
	}
	return &Void{
		ID:       spec.ID,
		Name:     spec.Name,
		Color:    spec.Color,
		Role:     role,
		Position: spec.Position,
		Radius:   StartRadius,
		Behavior: BehaviorWander,
		Target:   spec.Position,
	}
}

// IsPlayer reports whether the void follows the aim point
func (v *Void) IsPlayer() bool {
	return v.Role == RolePlayer
}

// Step advances the void by dt. aim is the player's aim point and is ignored
// for bots; nil means no input. perception is the registry snapshot bots
// search for threats.
func (v *Void) Step(dt float64, aim *r2.Vec, perception []RegistryEntry, rng *rand.Rand, boundary float64) {
	var desired r2.Vec
	if v.IsPlayer() {
		desired = v.playerVelocity(aim)
	} else {
		desired = v.autonomousVelocity(dt, perception, rng)
	}

	blend := math.Min(1, dt*DampingRate)
	v.Velocity = r2.Add(v.Velocity, r2.Scale(blend, r2.Sub(desired, v.Velocity)))
	v.Velocity = reflectAtBoundary(v.Position, v.Velocity, boundary)
	v.Position = r2.Add(v.Position, r2.Scale(dt, v.Velocity))
}

func (v *Void) playerVelocity(aim *r2.Vec) r2.Vec {
	if aim == nil {
		return r2.Vec{}
	}
	return seek(v.Position, *aim, AimDeadzone, MaxSpeed)
}

func (v *Void) autonomousVelocity(dt float64, perception []RegistryEntry, rng *rand.Rand) r2.Vec {
	v.decisionTimer -= dt
	if v.decisionTimer <= 0 {
		v.decide(perception, rng)
		v.decisionTimer = DecisionIntervalMin + rng.Float64()*(DecisionIntervalMax-DecisionIntervalMin)
	}
	return seek(v.Position, v.Target, ArrivalRadius, MaxSpeed*AutonomousSpeedFactor)
}

// decide picks WANDER or FLEE from the nearest larger void within ThreatRadius
func (v *Void) decide(perception []RegistryEntry, rng *rand.Rand) {
	threat, found := nearestThreat(v.ID, v.Position, v.Radius, perception)
	if !found {
		v.Behavior = BehaviorWander
		angle := rng.Float64() * 2 * math.Pi
		v.Target = r2.Vec{X: math.Cos(angle) * WanderRadius, Y: math.Sin(angle) * WanderRadius}
		return
	}

	away, dist := direction(threat.Position, v.Position)
	if dist == 0 {
		// Same center as the threat: any direction is away
		angle := rng.Float64() * 2 * math.Pi
		away = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	v.Behavior = BehaviorFlee
	v.Target = r2.Add(v.Position, r2.Scale(FleeDistance, away))
}

// nearestThreat returns the closest entry other than self that is strictly
// larger and strictly closer than ThreatRadius.
func nearestThreat(selfID string, pos r2.Vec, radius float64, perception []RegistryEntry) (RegistryEntry, bool) {
	var best RegistryEntry
	bestDist := ThreatRadius
	found := false
	for _, e := range perception {
		if e.ID == selfID || e.Radius <= radius {
			continue
		}
		d := r2.Norm(r2.Sub(e.Position, pos))
		if d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

// ApplyGrowth adds the reward for consuming an object of the given value and
// size. It reports whether radius or score changed.
func (v *Void) ApplyGrowth(value, size float64) bool {
	gain := value * ScorePerValue
	radius := math.Sqrt(v.Radius*v.Radius + size*size*GrowthAreaFactor)

	if !checkInvariant(gain >= 0 && !math.IsInf(gain, 0), "score gain %v for %s", gain, v.ID) {
		gain = 0
	}
	if !checkInvariant(radius >= v.Radius && !math.IsInf(radius, 0), "radius %v -> %v for %s", v.Radius, radius, v.ID) {
		radius = v.Radius
	}
	if gain == 0 && radius == v.Radius {
		return false
	}
	v.Score += gain
	v.Radius = radius
	return true
}

// View returns the observable projection of the void
func (v *Void) View() VoidView {
	return VoidView{
		ID:       v.ID,
		Name:     v.Name,
		Color:    v.Color,
		X:        v.Position.X,
		Z:        v.Position.Y,
		Radius:   v.Radius,
		Score:    v.Score,
		IsPlayer: v.IsPlayer(),
	}
}

// reflectAtBoundary flips the velocity component that points further out of
// the square arena once the position has crossed the boundary.
func reflectAtBoundary(pos, vel r2.Vec, boundary float64) r2.Vec {
	if pos.X > boundary {
		vel.X = -math.Abs(vel.X)
	} else if pos.X < -boundary {
		vel.X = math.Abs(vel.X)
	}
	if pos.Y > boundary {
		vel.Y = -math.Abs(vel.Y)
	} else if pos.Y < -boundary {
		vel.Y = math.Abs(vel.Y)
	}
	return vel
}

// seek returns speed toward target, or zero inside the stop radius
func seek(from, to r2.Vec, stop, speed float64) r2.Vec {
	dir, dist := direction(from, to)
	if dist <= stop {
		return r2.Vec{}
	}
	return r2.Scale(speed, dir)
}

// direction returns the unit vector from a to b and the distance between them.
// The unit vector is zero when the points coincide.
func direction(a, b r2.Vec) (r2.Vec, float64) {
	d := r2.Sub(b, a)
	n := r2.Norm(d)
	if n == 0 {
		return r2.Vec{}, 0
	}
	return r2.Scale(1/n, d), n
}
