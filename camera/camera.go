// Package camera maps field coordinates onto a viewport: window pixels or
// terminal cells.
package camera

import (
	"math"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Camera fits the whole field into the viewport with a uniform scale,
// centered and letterboxed.
type Camera struct {
	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Field dimensions
	WorldW, WorldH float64

	// Aspect is the height of one viewport unit relative to its width: 1 for
	// square pixels, about 2 for terminal cells.
	Aspect float64

	// Derived by fit
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

// New creates a camera for square pixels.
func New(viewportW, viewportH, worldW, worldH float64) *Camera {
	return NewWithAspect(viewportW, viewportH, worldW, worldH, 1)
}

// NewWithAspect creates a camera for viewport units of the given aspect.
func NewWithAspect(viewportW, viewportH, worldW, worldH, aspect float64) *Camera {
	if aspect <= 0 {
		aspect = 1
	}
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		Aspect:    aspect,
	}
	c.fit()
	return c
}

func (c *Camera) fit() {
	if c.WorldW <= 0 || c.WorldH <= 0 {
		c.ScaleX, c.ScaleY, c.OffsetX, c.OffsetY = 1, 1, 0, 0
		return
	}
	s := math.Min(c.ViewportW/c.WorldW, c.ViewportH*c.Aspect/c.WorldH)
	c.ScaleX = s
	c.ScaleY = s / c.Aspect
	c.OffsetX = (c.ViewportW - c.WorldW*c.ScaleX) / 2
	c.OffsetY = (c.ViewportH - c.WorldH*c.ScaleY) / 2
}

// Resize updates viewport dimensions and refits the field.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fit()
}

// SetWorld changes the field dimensions and refits.
func (c *Camera) SetWorld(worldW, worldH float64) {
	if worldW == c.WorldW && worldH == c.WorldH {
		return
	}
	c.WorldW = worldW
	c.WorldH = worldH
	c.fit()
}

// WorldToScreen converts field coordinates to viewport coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return c.OffsetX + wx*c.ScaleX, c.OffsetY + wy*c.ScaleY
}

// ScreenToWorld converts viewport coordinates to field coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return (sx - c.OffsetX) / c.ScaleX, (sy - c.OffsetY) / c.ScaleY
}

// RectToScreen converts a field rectangle to viewport coordinates.
func (c *Camera) RectToScreen(r sim.Rect) sim.Rect {
	x, y := c.WorldToScreen(r.X, r.Y)
	return sim.Rect{X: x, Y: y, W: r.W * c.ScaleX, H: r.H * c.ScaleY}
}

// IsVisible reports whether any part of a field rectangle lands inside the
// viewport.
func (c *Camera) IsVisible(r sim.Rect) bool {
	s := c.RectToScreen(r)
	return s.Right() > 0 && s.X < c.ViewportW && s.Bottom() > 0 && s.Y < c.ViewportH
}

// Field returns the viewport rectangle covered by the field.
func (c *Camera) Field() sim.Rect {
	return c.RectToScreen(sim.Rect{W: c.WorldW, H: c.WorldH})
}
