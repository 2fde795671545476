package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// neverHits is a detector that ignores pipes.
type neverHits struct{}

func (neverHits) Collides(*Agent, *DualPipe) bool { return false }

func testAgentParams() AgentParams {
	return AgentParams{
		ID:           1,
		Start:        mgl64.Vec2{125, 300},
		Diameter:     48,
		MaxHeight:    800,
		TotalPipes:   3,
		Gravity:      mgl64.Vec2{0, 0.25},
		FlapVelocity: mgl64.Vec2{0, -8},
	}
}

// farPipe is out of reach of an agent at x=125.
func farPipe() *DualPipe { return NewDualPipe(0, 1000, 50, 200, 250, 800) }

func mustAgent(t *testing.T, p AgentParams, initial *DualPipe) *Agent {
	t.Helper()
	a, err := NewAgent(p, initial)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return a
}

func TestAgentParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *AgentParams)
	}{
		{"zero height", func(p *AgentParams) { p.MaxHeight = 0 }},
		{"negative diameter", func(p *AgentParams) { p.Diameter = -2 }},
		{"no pipes", func(p *AgentParams) { p.TotalPipes = 0 }},
		{"starts below floor", func(p *AgentParams) { p.Start = mgl64.Vec2{125, 900} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testAgentParams()
			tc.mutate(&p)
			if _, err := NewAgent(p, nil); !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("NewAgent error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestAgent_FrozenWithoutPipe(t *testing.T) {
	a := mustAgent(t, testAgentParams(), nil)

	for i := 0; i < 1000; i++ {
		a.ApplyDecision(i%7 == 0)
		a.Tick()
	}

	if a.Position().Y() != 300 {
		t.Errorf("y = %v, want 300", a.Position().Y())
	}
	if a.IsTerminal() {
		t.Errorf("frozen agent became terminal: %v", a.Reason())
	}
	if a.Score() != 0 {
		t.Errorf("score = %v, want 0", a.Score())
	}
}

func TestAgent_FallsUntilFloor(t *testing.T) {
	p := testAgentParams()
	p.MaxHeight = 652
	a := mustAgent(t, p, farPipe())

	prev := a.Position().Y()
	floorTick := -1
	for tick := 1; tick <= 500; tick++ {
		a.ApplyDecision(false)
		a.Tick()
		y := a.Position().Y()
		if y < prev {
			t.Fatalf("tick %d: y decreased from %v to %v", tick, prev, y)
		}
		if y > 652 {
			t.Fatalf("tick %d: y = %v above max height", tick, y)
		}
		if a.IsTerminal() && floorTick < 0 {
			floorTick = tick
		}
		prev = y
	}

	if floorTick < 0 {
		t.Fatal("agent never hit the floor")
	}
	if a.Reason() != ReasonFloor {
		t.Errorf("reason = %v, want floor", a.Reason())
	}
	if a.Position().Y() != 652 {
		t.Errorf("resting y = %v, want 652", a.Position().Y())
	}
	// Score counts the ticks survived, excluding the fatal one.
	if a.Score() != float64(floorTick-1) {
		t.Errorf("score = %v, want %d", a.Score(), floorTick-1)
	}
}

func TestAgent_FlapOverridesVelocity(t *testing.T) {
	a := mustAgent(t, testAgentParams(), farPipe())

	for i := 0; i < 10; i++ {
		a.ApplyDecision(false)
		a.Tick()
	}
	if vy := a.Velocity().Y(); vy <= 0 {
		t.Fatalf("velocity before flap = %v, want downward", vy)
	}

	y := a.Position().Y()
	a.ApplyDecision(true)
	if !a.Flapped() {
		t.Error("Flapped() = false after flap")
	}
	a.Tick()

	if vy := a.Velocity().Y(); math.Abs(vy-(-7.75)) > 1e-9 {
		t.Errorf("velocity after flap tick = %v, want -7.75", vy)
	}
	if got := a.Position().Y(); math.Abs(got-(y-7.75)) > 1e-9 {
		t.Errorf("y after flap tick = %v, want %v", got, y-7.75)
	}

	a.ApplyDecision(false)
	if a.Flapped() {
		t.Error("Flapped() stuck after a no-op decision")
	}
}

func TestAgent_Ceiling(t *testing.T) {
	p := testAgentParams()
	p.FlapVelocity = mgl64.Vec2{0, -400}
	a := mustAgent(t, p, farPipe())

	a.ApplyDecision(true)
	a.Tick()

	if a.Reason() != ReasonCeiling {
		t.Fatalf("reason = %v, want ceiling", a.Reason())
	}
	if a.Position().Y() != 0 {
		t.Errorf("y = %v, want clamped to 0", a.Position().Y())
	}
}

func TestAgent_TerminalIsInert(t *testing.T) {
	p := testAgentParams()
	p.FlapVelocity = mgl64.Vec2{0, -400}
	a := mustAgent(t, p, farPipe())
	a.ApplyDecision(true)
	a.Tick()

	pos, vel, score := a.Position(), a.Velocity(), a.Score()
	for i := 0; i < 10; i++ {
		a.ApplyDecision(true)
		a.Tick()
		a.RegisterPipePassed(true, nil)
	}

	if a.Position() != pos || a.Velocity() != vel || a.Score() != score {
		t.Error("terminal agent changed state")
	}
	if a.PipesPassed() != 0 {
		t.Errorf("terminal agent credited %d pipes", a.PipesPassed())
	}
	if a.Reason() != ReasonCeiling {
		t.Errorf("reason overwritten with %v", a.Reason())
	}
}

func TestAgent_PassingEveryPipeCompletesTrack(t *testing.T) {
	p := testAgentParams()
	p.Gravity = mgl64.Vec2{}
	p.Detector = neverHits{}
	pipes := []*DualPipe{farPipe(), farPipe(), farPipe()}
	a := mustAgent(t, p, pipes[0])

	for i := 0; i < 3; i++ {
		if a.IsTerminal() {
			t.Fatalf("terminal after %d passes", i)
		}
		var next *DualPipe
		if i+1 < len(pipes) {
			next = pipes[i+1]
		}
		a.ApplyDecision(false)
		a.Tick()
		a.RegisterPipePassed(true, next)
		if a.Closest() != next {
			t.Errorf("pass %d: closest not rebound", i+1)
		}
	}

	if a.PipesPassed() != 3 {
		t.Errorf("pipes passed = %d, want 3", a.PipesPassed())
	}
	if a.Reason() != ReasonTrackCompleted {
		t.Errorf("reason = %v, want track_completed", a.Reason())
	}
	if a.Completion() != 1 {
		t.Errorf("completion = %v, want 1", a.Completion())
	}
}

func TestAgent_ObserveAndDecide(t *testing.T) {
	p := testAgentParams()
	var seen Observation
	p.Policy = PolicyFunc(func(obs Observation) (bool, error) {
		seen = obs
		return obs.Y > obs.GapBottom, nil
	})
	pipe := NewDualPipe(0, 300, 50, 200, 250, 800)
	a := mustAgent(t, p, pipe)

	flap, err := a.Decide()
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if flap {
		t.Error("flapped inside the gap")
	}

	want := Observation{Y: 300, PipeFarX: 374, GapTop: 224, GapBottom: 426, HasPipe: true}
	if seen != want {
		t.Errorf("observation = %+v, want %+v", seen, want)
	}
	if got := seen.Inputs(); len(got) != len(InputNames) {
		t.Errorf("%d inputs for %d names", len(got), len(InputNames))
	}

	boom := errors.New("boom")
	p.Policy = PolicyFunc(func(Observation) (bool, error) { return false, boom })
	a = mustAgent(t, p, pipe)
	if _, err := a.Decide(); !errors.Is(err, boom) {
		t.Errorf("Decide error = %v, want wrapped boom", err)
	}
}

func TestAgent_ResetRestoresStart(t *testing.T) {
	a := mustAgent(t, testAgentParams(), farPipe())
	for i := 0; i < 50; i++ {
		a.ApplyDecision(i%10 == 0)
		a.Tick()
	}
	next := farPipe()
	a.Reset(next)

	if a.Position() != (mgl64.Vec2{125, 300}) || a.Velocity() != (mgl64.Vec2{}) {
		t.Errorf("reset kinematics: pos=%v vel=%v", a.Position(), a.Velocity())
	}
	if a.IsTerminal() || a.Score() != 0 || a.PipesPassed() != 0 || a.Closest() != next {
		t.Error("reset left stale run state")
	}
}
