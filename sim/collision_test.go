package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestDetectors(t *testing.T) {
	// x in [100, 150), top pipe [0, 200), bottom pipe [450, 800).
	pipe := NewDualPipe(0, 100, 50, 200, 250, 800)

	tests := []struct {
		name     string
		x, y     float64
		wantRect bool
		wantMask bool
	}{
		{"inside gap", 125, 300, false, false},
		{"above gap", 125, 150, true, true},
		{"below gap", 125, 500, true, true},
		{"left of pipe", 60, 150, false, false},
		{"right of pipe", 200, 500, false, false},
		{"touching left edge", 76, 150, false, false},
		{"overlapping left edge", 80, 150, true, true},
		// The body pokes above the gap while the center is inside it.
		{"clipping gap corner", 125, 210, false, true},
	}

	mask := NewMaskDetector(48)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testAgentParams()
			p.Start = mgl64.Vec2{tc.x, tc.y}
			a := mustAgent(t, p, pipe)

			if got := (RectDetector{}).Collides(a, pipe); got != tc.wantRect {
				t.Errorf("rect collides = %v, want %v", got, tc.wantRect)
			}
			if got := mask.Collides(a, pipe); got != tc.wantMask {
				t.Errorf("mask collides = %v, want %v", got, tc.wantMask)
			}
		})
	}
}

func TestDetectors_NilPipe(t *testing.T) {
	a := mustAgent(t, testAgentParams(), nil)
	if (RectDetector{}).Collides(a, nil) || NewMaskDetector(48).Collides(a, nil) {
		t.Error("collision reported against a nil pipe")
	}
}

func TestAgent_CollisionTerminates(t *testing.T) {
	p := testAgentParams()
	p.Start = mgl64.Vec2{125, 150}
	a := mustAgent(t, p, NewDualPipe(0, 100, 50, 200, 250, 800))

	a.ApplyDecision(false)
	a.Tick()

	if a.Reason() != ReasonCollision {
		t.Errorf("reason = %v, want collision", a.Reason())
	}
	if !a.Reason().Failed() {
		t.Error("collision should count as failed")
	}
}

func TestMask(t *testing.T) {
	disc := CircleMask(10)
	if w, h := disc.Size(); w != 10 || h != 10 {
		t.Fatalf("size = %dx%d", w, h)
	}
	if disc.Get(0, 0) || disc.Get(9, 9) {
		t.Error("disc covers its corners")
	}
	if !disc.Get(5, 5) || !disc.Get(0, 5) {
		t.Error("disc missing center or edge midpoint")
	}
	if n := disc.Count(); n >= 100 || n < 60 {
		t.Errorf("disc has %d pixels, want roughly pi*25", n)
	}

	block := RectMask(70, 3)
	if block.Count() != 210 {
		t.Errorf("rect count = %d, want 210", block.Count())
	}

	tests := []struct {
		name   string
		dx, dy int
		want   bool
	}{
		{"centered", 0, 4, true},
		{"clear below", 0, 10, false},
		{"clear right", 10, 0, false},
		{"touching only disc corner", 9, 9, false},
		{"crossing from the left", -65, 4, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := disc.Overlap(block, tc.dx, tc.dy); got != tc.want {
				t.Errorf("Overlap(%d, %d) = %v, want %v", tc.dx, tc.dy, got, tc.want)
			}
		})
	}
}
