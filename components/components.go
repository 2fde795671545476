// Package components defines ECS components for the scene.
package components

import "github.com/KevinHern/flappy-bird-ai/sim"

// Position is an entity's top-left corner in field coordinates.
type Position struct {
	X, Y float64
}

// Size is an entity's extent.
type Size struct {
	W, H float64
}

// Bird holds per-agent display state.
type Bird struct {
	ID          int
	Alive       bool
	Flapped     bool
	Reason      sim.TerminalReason
	PipesPassed int
	Score       float64
	VY          float64

	// Animation
	Counter int // ticks into the wing cycle
	Frame   int // sprite index
}

// Pipe marks one half of a pipe pair.
type Pipe struct {
	Index int
	Top   bool
}

// Rect returns the axis-aligned rectangle of an entity.
func Rect(pos *Position, size *Size) sim.Rect {
	return sim.Rect{X: pos.X, Y: pos.Y, W: size.W, H: size.H}
}
