package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/KevinHern/flappy-bird-ai/components"
)

func TestAnimationFrame(t *testing.T) {
	tests := []struct {
		counter int
		want    int
	}{
		{0, 0}, {5, 0},
		{6, 1}, {10, 1},
		{11, 2}, {15, 2},
		{16, 1}, {19, 1},
	}

	for _, tt := range tests {
		if got := AnimationFrame(tt.counter); got != tt.want {
			t.Errorf("AnimationFrame(%d) = %d, want %d", tt.counter, got, tt.want)
		}
	}
}

func TestAnimationSystemSkipsDeadBirds(t *testing.T) {
	w := ecs.NewWorld()
	birds := ecs.NewMap1[components.Bird](w)

	alive := birds.NewEntity(&components.Bird{ID: 0, Alive: true})
	dead := birds.NewEntity(&components.Bird{ID: 1, Alive: false, Counter: 3})

	sys := NewAnimationSystem(w)
	for i := 0; i < 7; i++ {
		sys.Update(1)
	}

	if b := birds.Get(alive); b.Counter != 7 || b.Frame != 1 {
		t.Errorf("alive bird counter %d frame %d, want 7 and 1", b.Counter, b.Frame)
	}
	if b := birds.Get(dead); b.Counter != 3 {
		t.Errorf("dead bird advanced to %d", b.Counter)
	}

	// The cycle wraps.
	sys.Update(13)
	if b := birds.Get(alive); b.Counter != 0 || b.Frame != 0 {
		t.Errorf("after wrap counter %d frame %d, want 0 and 0", b.Counter, b.Frame)
	}
}
