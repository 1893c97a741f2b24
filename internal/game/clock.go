package game

// Phase is the match lifecycle state
type Phase int

const (
	PhaseMenu Phase = iota
	PhasePlaying
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseMenu:
		return "MENU"
	case PhasePlaying:
		return "PLAYING"
	case PhaseGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// MatchClock owns the phase machine and the countdown in whole seconds.
// It is not safe for concurrent use; the engine guards it.
type MatchClock struct {
	phase    Phase
	timeLeft int
	duration int
}

// NewMatchClock creates a clock in MENU. Non-positive durations fall back
// to DefaultMatchDuration.
func NewMatchClock(duration int) *MatchClock {
	if duration <= 0 {
		duration = DefaultMatchDuration
	}
	return &MatchClock{phase: PhaseMenu, timeLeft: duration, duration: duration}
}

func (c *MatchClock) Phase() Phase { return c.phase }
func (c *MatchClock) TimeLeft() int { return c.timeLeft }
func (c *MatchClock) Duration() int { return c.duration }
func (c *MatchClock) Playing() bool { return c.phase == PhasePlaying }

// Start moves MENU to PLAYING with a full countdown
func (c *MatchClock) Start() bool {
	if c.phase != PhaseMenu {
		return false
	}
	c.phase = PhasePlaying
	c.timeLeft = c.duration
	return true
}

// DecrementOnce removes one second while PLAYING. It returns true only on the
// call that ends the match.
func (c *MatchClock) DecrementOnce() bool {
	if c.phase != PhasePlaying {
		return false
	}
	c.timeLeft--
	if c.timeLeft <= 0 {
		c.timeLeft = 0
		c.phase = PhaseGameOver
		return true
	}
	return false
}

// ReturnToMenu moves GAME_OVER back to MENU
func (c *MatchClock) ReturnToMenu() bool {
	if c.phase != PhaseGameOver {
		return false
	}
	c.phase = PhaseMenu
	c.timeLeft = c.duration
	return true
}

// Reset returns to MENU with a full countdown from any phase
func (c *MatchClock) Reset() {
	c.phase = PhaseMenu
	c.timeLeft = c.duration
}
