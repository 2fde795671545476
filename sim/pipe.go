// Package sim implements the deterministic game core: pipe obstacles, the
// scrolling pipe track, bird agents, and the per-tick step driver.
package sim

import "github.com/go-gl/mathgl/mgl64"

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
// Y grows downward, matching screen coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// DualPipe is one top/bottom pipe pair separated by a vertical gap.
// Both rectangles always share the same x and width.
type DualPipe struct {
	Index  int
	Top    Rect
	Bottom Rect
}

// NewDualPipe builds a pipe pair at x. The top pipe spans [0, topHeight) and the
// bottom pipe starts gap units below it and runs to fieldHeight.
func NewDualPipe(index int, x, width, topHeight, gap, fieldHeight float64) *DualPipe {
	bottomY := topHeight + gap
	return &DualPipe{
		Index:  index,
		Top:    Rect{X: x, Y: 0, W: width, H: topHeight},
		Bottom: Rect{X: x, Y: bottomY, W: width, H: fieldHeight - bottomY},
	}
}

// Translate shifts both pipes left by velocity.
func (p *DualPipe) Translate(velocity mgl64.Vec2) {
	p.Top.X -= velocity.X()
	p.Top.Y -= velocity.Y()
	p.Bottom.X -= velocity.X()
	p.Bottom.Y -= velocity.Y()
}

// X returns the shared left edge of the pair.
func (p *DualPipe) X() float64 { return p.Top.X }

// Width returns the shared width of the pair.
func (p *DualPipe) Width() float64 { return p.Top.W }

// GapTop is the y coordinate of the top pipe's bottom edge.
func (p *DualPipe) GapTop() float64 { return p.Top.Bottom() }

// GapBottom is the y coordinate of the bottom pipe's top edge.
func (p *DualPipe) GapBottom() float64 { return p.Bottom.Y }

// Gap returns the vertical opening between the two pipes.
func (p *DualPipe) Gap() float64 { return p.GapBottom() - p.GapTop() }
