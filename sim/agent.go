package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// AgentParams configures a bird.
type AgentParams struct {
	ID         int
	Start      mgl64.Vec2
	Diameter   float64
	MaxHeight  float64
	TotalPipes int

	// Gravity is added to the velocity every tick.
	Gravity mgl64.Vec2
	// FlapVelocity replaces the velocity when the bird flaps.
	FlapVelocity mgl64.Vec2

	Policy   Policy
	Detector CollisionDetector
}

// Validate reports malformed parameters.
func (p AgentParams) Validate() error {
	switch {
	case p.MaxHeight <= 0:
		return fmt.Errorf("%w: max height %v must be positive", ErrInvalidGeometry, p.MaxHeight)
	case p.Diameter < 0:
		return fmt.Errorf("%w: diameter %v must not be negative", ErrInvalidGeometry, p.Diameter)
	case p.TotalPipes <= 0:
		return fmt.Errorf("%w: total pipes %d must be positive", ErrInvalidGeometry, p.TotalPipes)
	case p.Start.Y() < 0 || p.Start.Y() > p.MaxHeight:
		return fmt.Errorf("%w: start height %v outside [0, %v]", ErrInvalidGeometry, p.Start.Y(), p.MaxHeight)
	}
	return nil
}

// Agent is one simulated bird. Its position is the center of its body.
//
// An agent is Alive until it collides, leaves the field vertically, or passes
// every pipe. Terminal is one-way; only Reset brings an agent back.
type Agent struct {
	params AgentParams

	position mgl64.Vec2
	velocity mgl64.Vec2
	flapped  bool

	closest     *DualPipe
	pipesPassed int
	score       float64
	reason      TerminalReason
}

// NewAgent creates an agent bound to the given initial pipe. A nil detector
// selects RectDetector.
func NewAgent(params AgentParams, initial *DualPipe) (*Agent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Detector == nil {
		params.Detector = RectDetector{}
	}

	a := &Agent{params: params}
	a.Reset(initial)
	return a, nil
}

// Reset restores the starting state and binds the agent to next.
func (a *Agent) Reset(next *DualPipe) {
	a.position = a.params.Start
	a.velocity = mgl64.Vec2{}
	a.flapped = false
	a.closest = next
	a.pipesPassed = 0
	a.score = 0
	a.reason = ReasonNone
}

// ApplyDecision overwrites the velocity with the flap impulse when flap is
// true. It must be called before Tick for the flap to count this tick.
// Terminal agents ignore it.
func (a *Agent) ApplyDecision(flap bool) {
	a.flapped = false
	if !flap || a.IsTerminal() {
		return
	}
	a.velocity = a.params.FlapVelocity
	a.flapped = true
}

// Tick advances physics by one step, then checks bounds and collisions.
//
// Tick is intentionally inert on a terminal agent. An agent with no pipe to
// clear is frozen: the track is exhausted and the agent survived it.
func (a *Agent) Tick() {
	if a.IsTerminal() || a.closest == nil {
		return
	}

	a.velocity = a.velocity.Add(a.params.Gravity)
	a.position = a.position.Add(a.velocity)

	if a.position.Y() > a.params.MaxHeight {
		a.position[1] = a.params.MaxHeight
		a.terminate(ReasonFloor)
	}
	if a.position.Y() < 0 {
		a.position[1] = 0
		a.terminate(ReasonCeiling)
	}

	if a.params.Detector.Collides(a, a.closest) {
		a.terminate(ReasonCollision)
	}

	if !a.IsTerminal() {
		a.score++
	}
}

// RegisterPipePassed credits a passed pipe and rebinds the agent to next.
// Passing the last pipe ends the run with ReasonTrackCompleted.
func (a *Agent) RegisterPipePassed(passed bool, next *DualPipe) {
	if !passed || a.IsTerminal() {
		return
	}
	a.pipesPassed++
	a.closest = next
	if a.pipesPassed == a.params.TotalPipes {
		a.terminate(ReasonTrackCompleted)
	}
}

// terminate records the first reason only.
func (a *Agent) terminate(reason TerminalReason) {
	if a.reason == ReasonNone {
		a.reason = reason
	}
}

// Decide asks the agent's policy whether to flap. Agents without a policy, or
// without a pipe to look at, never flap.
func (a *Agent) Decide() (bool, error) {
	if a.params.Policy == nil || a.closest == nil {
		return false, nil
	}
	flap, err := a.params.Policy.Decide(a.Observe())
	if err != nil {
		return false, fmt.Errorf("agent %d: %w", a.params.ID, err)
	}
	return flap, nil
}

// Observe builds the policy inputs from the current state. Pipe-relative
// fields are zero when no pipe is bound.
func (a *Agent) Observe() Observation {
	obs := Observation{Y: a.position.Y()}
	if a.closest == nil {
		return obs
	}
	r := a.Radius()
	obs.PipeFarX = a.closest.Top.Right() + r
	obs.GapTop = a.closest.GapTop() + r
	obs.GapBottom = a.closest.GapBottom() - r
	obs.HasPipe = true
	return obs
}

// ID returns the agent identifier.
func (a *Agent) ID() int { return a.params.ID }

// IsTerminal reports whether the agent has stopped.
func (a *Agent) IsTerminal() bool { return a.reason != ReasonNone }

// Reason returns why the agent stopped, or ReasonNone while alive.
func (a *Agent) Reason() TerminalReason { return a.reason }

// Score returns the number of ticks survived.
func (a *Agent) Score() float64 { return a.score }

// PipesPassed returns the number of pipes cleared.
func (a *Agent) PipesPassed() int { return a.pipesPassed }

// TotalPipes returns the number of pipes needed to complete the track.
func (a *Agent) TotalPipes() int { return a.params.TotalPipes }

// Position returns the center of the agent.
func (a *Agent) Position() mgl64.Vec2 { return a.position }

// Velocity returns the current velocity.
func (a *Agent) Velocity() mgl64.Vec2 { return a.velocity }

// Flapped reports whether the last decision was a flap.
func (a *Agent) Flapped() bool { return a.flapped }

// Diameter returns the body diameter.
func (a *Agent) Diameter() float64 { return a.params.Diameter }

// Radius returns half the body diameter.
func (a *Agent) Radius() float64 { return a.params.Diameter / 2 }

// Closest returns the pipe the agent is checked against, or nil.
func (a *Agent) Closest() *DualPipe { return a.closest }

// Completion returns the fraction of the track cleared.
func (a *Agent) Completion() float64 {
	return float64(a.pipesPassed) / float64(a.params.TotalPipes)
}
