package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind is the category of a consumable object
type Kind int

const (
	KindCrate Kind = iota
	KindBarrel
	KindTree
	KindCar
	KindBuilding
	KindLamp
)

var kindNames = [...]string{"crate", "barrel", "tree", "car", "building", "lamp"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// ConsumableSpec describes an object to place in the arena
type ConsumableSpec struct {
	ID       string
	Kind     Kind
	Position r2.Vec
	Size     float64
	Value    float64
}

// Consumable is an object that can be pulled toward and swallowed by a void
type Consumable struct {
	ID       string
	Kind     Kind
	Position r2.Vec
	Velocity r2.Vec
	Size     float64
	Value    float64

	consumed   bool
	consumedBy string
}

// NewConsumable creates a live object from spec
func NewConsumable(spec ConsumableSpec) *Consumable {
	return &Consumable{
		ID:       spec.ID,
		Kind:     spec.Kind,
		Position: spec.Position,
		Size:     spec.Size,
		Value:    spec.Value,
	}
}

// Consumed reports whether the object has been swallowed
func (c *Consumable) Consumed() bool {
	return c.consumed
}

// Interaction is the outcome of testing one object against every void
type Interaction struct {
	ConsumedBy string // Set when a void swallowed the object this tick
	Pull       r2.Vec // Sum of gravity-well forces when not consumed
	Pulled     bool
}

// Interact tests the object against entries in order. The first void that can
// swallow it wins and the scan stops; otherwise every void whose rim overlaps
// the object adds a pull toward its center. Consumed objects never interact again.
func (c *Consumable) Interact(entries []RegistryEntry) Interaction {
	var out Interaction
	if c.consumed {
		return out
	}

	for _, e := range entries {
		toward, dist := direction(c.Position, e.Position)
		if canSwallow(dist, e.Radius, c.Size) {
			c.consumed = true
			c.consumedBy = e.ID
			return Interaction{ConsumedBy: e.ID}
		}
		if inPullRange(dist, e.Radius, c.Size) {
			out.Pull = r2.Add(out.Pull, r2.Scale(PullForce, toward))
			out.Pulled = true
		}
	}
	return out
}

// restSpeed is the speed below which an unforced object settles
const restSpeed = 1e-3

// Drift integrates the object as a unit mass under force with linear drag
func (c *Consumable) Drift(force r2.Vec, dt float64) {
	c.Velocity = r2.Add(c.Velocity, r2.Scale(dt, force))
	c.Velocity = r2.Scale(math.Max(0, 1-PullDrag*dt), c.Velocity)
	if force == (r2.Vec{}) && r2.Norm(c.Velocity) < restSpeed {
		c.Velocity = r2.Vec{}
	}
	c.Position = r2.Add(c.Position, r2.Scale(dt, c.Velocity))
}

// View returns the read-only projection of the object
func (c *Consumable) View() ConsumableView {
	return ConsumableView{
		ID:         c.ID,
		Kind:       c.Kind.String(),
		X:          c.Position.X,
		Z:          c.Position.Y,
		Size:       c.Size,
		Value:      c.Value,
		Consumed:   c.consumed,
		ConsumedBy: c.consumedBy,
	}
}

// canSwallow: the center is at least half the object inside the rim and the
// hole is clearly larger than the object.
func canSwallow(dist, radius, size float64) bool {
	return dist < radius-size*ConsumeDepthFactor && radius > size*ConsumeMarginFactor
}

func inPullRange(dist, radius, size float64) bool {
	return dist < radius+size && radius > size
}

// ConsumableView is a consumable as presented outside the engine
type ConsumableView struct {
	ID         string  `json:"id" msgpack:"id"`
	Kind       string  `json:"kind" msgpack:"kind"`
	X          float64 `json:"x" msgpack:"x"`
	Z          float64 `json:"z" msgpack:"z"`
	Size       float64 `json:"size" msgpack:"size"`
	Value      float64 `json:"value" msgpack:"value"`
	Consumed   bool    `json:"consumed" msgpack:"consumed"`
	ConsumedBy string  `json:"consumedBy,omitempty" msgpack:"consumedBy,omitempty"`
}

// Pos returns the view position as a plane vector
func (v ConsumableView) Pos() r2.Vec {
	return r2.Vec{X: v.X, Y: v.Z}
}
