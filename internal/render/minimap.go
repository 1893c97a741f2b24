// Package render draws top-down minimaps of a match.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/fogleman/gg"

	"urban-void/internal/game"
)

// Frame is everything drawn in one minimap
type Frame struct {
	Voids       []game.VoidView
	Consumables []game.ConsumableView
}

// Minimap renders the arena square to a size x size image. World x maps to
// image x and world z maps to image y.
type Minimap struct {
	size     int
	boundary float64

	mu sync.Mutex
	dc *gg.Context // Reused between renders, guarded by mu
}

var kindColors = map[string]color.RGBA{
	"crate":    {176, 124, 70, 255},
	"barrel":   {200, 60, 40, 255},
	"tree":     {46, 140, 70, 255},
	"car":      {90, 110, 200, 255},
	"building": {120, 120, 135, 255},
	"lamp":     {230, 210, 90, 255},
}

// NewMinimap creates a renderer. Sizes below 64 pixels are raised to 64.
func NewMinimap(size int, boundary float64) *Minimap {
	if size < 64 {
		size = 64
	}
	if boundary <= 0 {
		boundary = game.DefaultBoundary
	}
	return &Minimap{size: size, boundary: boundary, dc: gg.NewContext(size, size)}
}

// Size returns the image edge length in pixels
func (m *Minimap) Size() int {
	return m.size
}

// scale converts world units to pixels
func (m *Minimap) scale() float64 {
	return float64(m.size) / (2 * m.boundary)
}

// toPixel maps a plane point to image coordinates
func (m *Minimap) toPixel(x, z float64) (float64, float64) {
	s := m.scale()
	return (x + m.boundary) * s, (z + m.boundary) * s
}

// Render draws frame and returns a copy of the image
func (m *Minimap) Render(frame Frame) image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draw(frame)
	src := m.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

// EncodePNG draws frame and writes it to w as PNG
func (m *Minimap) EncodePNG(w io.Writer, frame Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draw(frame)
	if err := m.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode minimap: %w", err)
	}
	return nil
}

func (m *Minimap) draw(frame Frame) {
	dc := m.dc
	size := float64(m.size)

	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, size, size)
	dc.Fill()

	m.drawGrid(dc)

	for _, c := range frame.Consumables {
		if c.Consumed {
			continue
		}
		x, y := m.toPixel(c.X, c.Z)
		col, ok := kindColors[c.Kind]
		if !ok {
			col = color.RGBA{200, 200, 200, 255}
		}
		dc.SetColor(col)
		dc.DrawCircle(x, y, max(1, c.Size*m.scale()))
		dc.Fill()
	}

	for _, v := range frame.Voids {
		m.drawVoid(dc, v)
	}

	// Arena edge
	dc.SetColor(color.RGBA{255, 255, 255, 160})
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, size-2, size-2)
	dc.Stroke()
}

// drawGrid draws a line every 20 world units
func (m *Minimap) drawGrid(dc *gg.Context) {
	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)
	for w := -m.boundary; w <= m.boundary; w += 20 {
		p, _ := m.toPixel(w, 0)
		dc.DrawLine(p, 0, p, float64(m.size))
		dc.Stroke()
		dc.DrawLine(0, p, float64(m.size), p)
		dc.Stroke()
	}
}

func (m *Minimap) drawVoid(dc *gg.Context, v game.VoidView) {
	x, y := m.toPixel(v.X, v.Z)
	r := max(2, v.Radius*m.scale())

	// Hole
	dc.SetColor(color.Black)
	dc.DrawCircle(x, y, r)
	dc.Fill()

	// Rim
	dc.SetColor(parseHexColor(v.Color))
	dc.SetLineWidth(2)
	if v.IsPlayer {
		dc.SetLineWidth(3)
	}
	dc.DrawCircle(x, y, r)
	dc.Stroke()
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{r, g, b, 255}
}
