package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchClockFullMatch(t *testing.T) {
	c := NewMatchClock(DefaultMatchDuration)
	require.Equal(t, PhaseMenu, c.Phase())
	require.True(t, c.Start())
	require.Equal(t, 120, c.TimeLeft())

	transitions := 0
	for i := 0; i < 120; i++ {
		if c.DecrementOnce() {
			transitions++
		}
	}

	assert.Equal(t, 1, transitions)
	assert.Equal(t, PhaseGameOver, c.Phase())
	assert.Zero(t, c.TimeLeft())

	// Further decrements are no-ops
	for i := 0; i < 5; i++ {
		assert.False(t, c.DecrementOnce())
	}
	assert.Zero(t, c.TimeLeft())
}

func TestMatchClockDecrementOutsidePlaying(t *testing.T) {
	c := NewMatchClock(10)
	assert.False(t, c.DecrementOnce())
	assert.Equal(t, 10, c.TimeLeft())
	assert.Equal(t, PhaseMenu, c.Phase())
}

func TestMatchClockTransitions(t *testing.T) {
	c := NewMatchClock(1)

	assert.False(t, c.ReturnToMenu(), "menu cannot return to menu")
	require.True(t, c.Start())
	assert.False(t, c.Start(), "already playing")
	assert.False(t, c.ReturnToMenu(), "playing cannot return to menu")

	require.True(t, c.DecrementOnce())
	assert.False(t, c.Start(), "game over must return to menu first")

	require.True(t, c.ReturnToMenu())
	assert.Equal(t, PhaseMenu, c.Phase())
	assert.Equal(t, 1, c.TimeLeft())
}

func TestMatchClockPlaying(t *testing.T) {
	c := NewMatchClock(1)
	assert.False(t, c.Playing())

	require.True(t, c.Start())
	assert.True(t, c.Playing())

	require.True(t, c.DecrementOnce())
	assert.False(t, c.Playing())

	require.True(t, c.ReturnToMenu())
	assert.False(t, c.Playing())
}

func TestMatchClockReset(t *testing.T) {
	c := NewMatchClock(0)
	require.Equal(t, DefaultMatchDuration, c.Duration())

	c.Start()
	c.DecrementOnce()
	c.DecrementOnce()
	c.Reset()

	assert.Equal(t, PhaseMenu, c.Phase())
	assert.Equal(t, DefaultMatchDuration, c.TimeLeft())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "MENU", PhaseMenu.String())
	assert.Equal(t, "PLAYING", PhasePlaying.String())
	assert.Equal(t, "GAME_OVER", PhaseGameOver.String())
	assert.Equal(t, "UNKNOWN", Phase(7).String())
}
