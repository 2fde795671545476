package scene

import (
	"testing"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

func snapshot(episode, tick int, pipes []int, agents ...sim.AgentState) sim.Snapshot {
	s := sim.Snapshot{
		Episode:     episode,
		Tick:        tick,
		FieldWidth:  500,
		FieldHeight: 700,
		TotalPipes:  10,
		Agents:      agents,
	}
	for _, idx := range pipes {
		x := float64(idx) * 200
		s.Pipes = append(s.Pipes, sim.PipeState{
			Index:  idx,
			Top:    sim.Rect{X: x, Y: 0, W: 104, H: 200},
			Bottom: sim.Rect{X: x, Y: 418, W: 104, H: 282},
		})
	}
	for _, a := range agents {
		if !a.Terminal {
			s.Alive++
		}
	}
	return s
}

func TestSyncBirds(t *testing.T) {
	sc := New()
	sc.Sync(snapshot(1, 1, nil,
		sim.AgentState{ID: 0, X: 125, Y: 300, Radius: 24, PipesPassed: 2},
		sim.AgentState{ID: 1, X: 125, Y: 320, Radius: 24, Terminal: true, Reason: sim.ReasonFloor},
		sim.AgentState{ID: 2, X: 125, Y: 340, Radius: 24, Flapped: true},
	))

	birds := sc.Birds()
	if len(birds) != 2 {
		t.Fatalf("got %d visible birds, want 2 (dead hidden)", len(birds))
	}
	if birds[0].ID != 0 || birds[1].ID != 2 {
		t.Errorf("bird IDs %d, %d, want 0, 2", birds[0].ID, birds[1].ID)
	}
	want := sim.Rect{X: 101, Y: 276, W: 48, H: 48}
	if birds[0].Rect != want {
		t.Errorf("bird 0 rect %+v, want %+v", birds[0].Rect, want)
	}
	if !birds[1].Flapped {
		t.Error("bird 2 should report its flap")
	}

	hud := sc.HUD()
	if hud.Alive != 2 || hud.Population != 3 || hud.BestPipes != 2 || hud.Tick != 1 {
		t.Errorf("HUD = %+v", hud)
	}
}

func TestSyncPipesAddsAndRemoves(t *testing.T) {
	sc := New()
	sc.Sync(snapshot(1, 1, []int{0, 1}))
	if got := len(sc.Pipes()); got != 4 {
		t.Fatalf("got %d pipe halves, want 4", got)
	}

	sc.Sync(snapshot(1, 2, []int{1, 2}))
	pipes := sc.Pipes()
	if len(pipes) != 4 {
		t.Fatalf("got %d pipe halves, want 4", len(pipes))
	}
	wantOrder := []struct {
		index int
		top   bool
	}{{1, true}, {1, false}, {2, true}, {2, false}}
	for i, w := range wantOrder {
		if pipes[i].Index != w.index || pipes[i].Top != w.top {
			t.Errorf("pipes[%d] = %d/%v, want %d/%v", i, pipes[i].Index, pipes[i].Top, w.index, w.top)
		}
	}
	if pipes[0].Rect.H != 200 || pipes[1].Rect.Y != 418 {
		t.Errorf("pipe 1 halves %+v %+v", pipes[0].Rect, pipes[1].Rect)
	}
}

func TestAnimationFollowsTicks(t *testing.T) {
	bird := sim.AgentState{ID: 0, X: 125, Y: 300, Radius: 24}
	sc := New()

	tests := []struct {
		tick  int
		frame int
	}{
		{1, 0},
		{5, 0},
		{8, 1}, // dropped snapshots still advance the cycle
		{12, 2},
		{17, 1},
		{21, 0}, // wrapped to counter 1
	}
	for _, tt := range tests {
		sc.Sync(snapshot(1, tt.tick, nil, bird))
		birds := sc.Birds()
		if len(birds) != 1 {
			t.Fatalf("tick %d: %d birds", tt.tick, len(birds))
		}
		if birds[0].Frame != tt.frame {
			t.Errorf("tick %d: frame %d, want %d", tt.tick, birds[0].Frame, tt.frame)
		}
	}
}

func TestNewEpisodeRebuildsWorld(t *testing.T) {
	sc := New()
	sc.Sync(snapshot(1, 30, []int{3, 4},
		sim.AgentState{ID: 0, Radius: 24},
		sim.AgentState{ID: 1, Radius: 24},
	))

	sc.Sync(snapshot(2, 1, []int{0}, sim.AgentState{ID: 0, Radius: 24}))
	if got := len(sc.Birds()); got != 1 {
		t.Errorf("got %d birds after a new episode, want 1", got)
	}
	pipes := sc.Pipes()
	if len(pipes) != 2 || pipes[0].Index != 0 {
		t.Errorf("pipes after a new episode: %+v", pipes)
	}
	if b := sc.Birds()[0]; b.Frame != 0 {
		t.Errorf("animation not restarted: frame %d", b.Frame)
	}
	if sc.HUD().Episode != 2 {
		t.Errorf("HUD episode %d, want 2", sc.HUD().Episode)
	}
}
