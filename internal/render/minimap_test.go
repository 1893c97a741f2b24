package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urban-void/internal/game"
)

func testFrame() Frame {
	return Frame{
		Voids: []game.VoidView{
			{ID: "player-1", Color: "#ff0088", Radius: 6, IsPlayer: true},
			{ID: "ai-1", Color: "#0088ff", X: 30, Z: 30, Radius: 3},
		},
		Consumables: []game.ConsumableView{
			{ID: "b-0", Kind: "building", X: -50, Z: -50, Size: 3},
			{ID: "d-1", Kind: "crate", X: 60, Z: -60, Size: 0.4, Consumed: true},
		},
	}
}

func TestMinimapEncodePNG(t *testing.T) {
	m := NewMinimap(190, game.DefaultBoundary)

	var buf bytes.Buffer
	require.NoError(t, m.EncodePNG(&buf, testFrame()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 190, img.Bounds().Dx())
	assert.Equal(t, 190, img.Bounds().Dy())

	// One pixel per world unit: the player hole is black at the center
	r, g, b, _ := img.At(95, 95).RGBA()
	assert.Zero(t, r|g|b)
}

func TestMinimapRenderCopies(t *testing.T) {
	m := NewMinimap(128, 0)
	first := m.Render(testFrame())
	second := m.Render(Frame{})

	assert.NotEqual(t, first.At(64, 64), second.At(64, 64), "earlier renders are not overwritten")
}

func TestMinimapMinimumSize(t *testing.T) {
	assert.Equal(t, 64, NewMinimap(10, 95).Size())
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 0, 136, 255}, parseHexColor("#ff0088"))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, parseHexColor("red"))
}
