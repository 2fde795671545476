package sim

import "math"

// CollisionDetector decides whether an agent touches a pipe pair.
type CollisionDetector interface {
	Collides(a *Agent, p *DualPipe) bool
}

// RectDetector treats the agent as a horizontal span of one diameter around
// its center. It collides when that span overlaps the pipe and the center is
// outside the gap.
type RectDetector struct{}

// Collides implements CollisionDetector.
func (RectDetector) Collides(a *Agent, p *DualPipe) bool {
	if p == nil {
		return false
	}
	pos := a.Position()
	r := a.Radius()
	if pos.X()+r <= p.X() || pos.X()-r >= p.Top.Right() {
		return false
	}
	return pos.Y() < p.GapTop() || pos.Y() > p.GapBottom()
}

// MaskDetector tests pixel masks: a disc for the agent and solid rectangles
// for the pipes. Pipe masks are cached by size.
//
// A MaskDetector is not safe for concurrent use.
type MaskDetector struct {
	agent *Mask
	pipes map[[2]int]*Mask
}

// NewMaskDetector builds a detector for an agent of the given diameter.
func NewMaskDetector(diameter float64) *MaskDetector {
	return &MaskDetector{
		agent: CircleMask(int(math.Ceil(diameter))),
		pipes: make(map[[2]int]*Mask),
	}
}

// Collides implements CollisionDetector.
func (d *MaskDetector) Collides(a *Agent, p *DualPipe) bool {
	if p == nil {
		return false
	}
	pos := a.Position()
	r := a.Radius()
	originX, originY := pos.X()-r, pos.Y()-r
	return d.overlaps(p.Top, originX, originY) || d.overlaps(p.Bottom, originX, originY)
}

func (d *MaskDetector) overlaps(rect Rect, originX, originY float64) bool {
	if rect.W <= 0 || rect.H <= 0 {
		return false
	}
	dx := int(math.Floor(rect.X - originX))
	dy := int(math.Ceil(rect.Y - originY))
	return d.agent.Overlap(d.pipeMask(rect), dx, dy)
}

func (d *MaskDetector) pipeMask(rect Rect) *Mask {
	key := [2]int{int(math.Ceil(rect.W)), int(math.Ceil(rect.H))}
	if m, ok := d.pipes[key]; ok {
		return m
	}
	m := RectMask(key[0], key[1])
	d.pipes[key] = m
	return m
}
