package game

// Movement and growth tuning. These values define gameplay balance and are
// shared by every match; per-match knobs live in EngineConfig.
const (
	StartRadius = 1.5  // Radius every void spawns with
	MaxSpeed    = 12.0 // Velocity magnitude cap (units/s)

	AimDeadzone = 0.5 // Player stops steering inside this distance of the aim point
	DampingRate = 3.0 // Exponential velocity smoothing rate (1/s)

	DefaultBoundary = 95.0 // Square arena half-extent on x and z

	// Autonomous behavior
	AutonomousSpeedFactor = 0.8  // Bots move at 0.8x player speed
	ThreatRadius          = 10.0 // Bots only react to larger voids closer than this
	FleeDistance          = 20.0 // Flee target is this far away from the threat
	WanderRadius          = 40.0 // Wander targets lie on this ring around the origin
	DecisionIntervalMin   = 1.0  // Seconds between re-evaluations (min)
	DecisionIntervalMax   = 3.0  // Seconds between re-evaluations (max, exclusive)
	ArrivalRadius         = 0.5  // Bots stop steering inside this distance of their target

	// Consumption
	ConsumeDepthFactor  = 0.5  // Object center must be size*0.5 inside the rim
	ConsumeMarginFactor = 1.2  // Hole must be 1.2x larger than the object
	PullForce           = 10.0 // Gravity-well force applied near the rim
	PullDrag            = 4.0  // Velocity decay for kinematic drift (1/s)

	// Growth
	ScorePerValue    = 10.0
	GrowthAreaFactor = 0.5

	DefaultMatchDuration = 120 // Seconds
	DefaultPublishEvery  = 6   // Ticks between observable position refreshes
)
