package sim

import (
	"context"
	"fmt"
)

// Phase names reported to a PhaseTimer.
const (
	PhaseTrack     = "track"
	PhaseAgents    = "agents"
	PhaseObservers = "observers"
)

// Observer receives a snapshot after every tick. Observers must not retain
// references into the simulation; the snapshot is already a copy.
type Observer interface {
	Observe(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Snapshot)

// Observe implements Observer.
func (f ObserverFunc) Observe(s Snapshot) { f(s) }

// PhaseTimer times the phases of a tick. telemetry.PerfCollector satisfies it.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Option configures an Episode.
type Option func(*Episode)

// WithObservers attaches snapshot observers.
func WithObservers(obs ...Observer) Option {
	return func(e *Episode) {
		for _, o := range obs {
			if o != nil {
				e.observers = append(e.observers, o)
			}
		}
	}
}

// WithMaxTicks stops the episode after n ticks even if agents are alive.
// Zero means no limit.
func WithMaxTicks(n int) Option {
	return func(e *Episode) { e.maxTicks = n }
}

// WithNumber tags snapshots with an episode number, usually the generation.
func WithNumber(n int) Option {
	return func(e *Episode) { e.number = n }
}

// WithPhaseTimer records per-phase timings of every tick.
func WithPhaseTimer(t PhaseTimer) Option {
	return func(e *Episode) { e.timer = t }
}

// StepResult describes one tick.
type StepResult struct {
	Tick   int
	Passed bool
	Alive  int
	Done   bool
}

// Result summarizes a finished episode.
type Result struct {
	Number    int
	Ticks     int
	Agents    []*Agent
	Reasons   map[TerminalReason]int
	Truncated bool // stopped by WithMaxTicks
}

// Episode drives one track and a population of agents tick by tick.
// It is not safe for concurrent use; one goroutine owns it for its lifetime.
type Episode struct {
	track     *Track
	agents    []*Agent
	alive     []*Agent
	observers []Observer
	timer     PhaseTimer
	maxTicks  int
	number    int

	tick int
	done bool
}

// NewEpisode binds agents to a track. Agents keep their population order.
func NewEpisode(track *Track, agents []*Agent, opts ...Option) *Episode {
	e := &Episode{
		track:  track,
		agents: agents,
		alive:  make([]*Agent, 0, len(agents)),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, a := range agents {
		if !a.IsTerminal() {
			e.alive = append(e.alive, a)
		}
	}
	e.done = len(e.alive) == 0
	return e
}

// Step runs one tick: the track advances once, then every alive agent
// decides, moves, and receives the same pass signal and head pipe.
func (e *Episode) Step() (StepResult, error) {
	if e.done {
		return StepResult{Tick: e.tick, Alive: len(e.alive), Done: true}, nil
	}

	if e.timer != nil {
		e.timer.StartTick()
		e.timer.StartPhase(PhaseTrack)
	}
	passed := e.track.Step()
	head := e.track.Head()

	if e.timer != nil {
		e.timer.StartPhase(PhaseAgents)
	}
	for _, a := range e.alive {
		flap, err := a.Decide()
		if err != nil {
			if e.timer != nil {
				e.timer.EndTick()
			}
			return StepResult{}, fmt.Errorf("tick %d: %w", e.tick, err)
		}
		a.ApplyDecision(flap)
		a.Tick()
		a.RegisterPipePassed(passed, head)
	}

	// Partition while preserving population order.
	kept := e.alive[:0]
	for _, a := range e.alive {
		if !a.IsTerminal() {
			kept = append(kept, a)
		}
	}
	e.alive = kept
	e.tick++

	e.done = len(e.alive) == 0 || (e.maxTicks > 0 && e.tick >= e.maxTicks)

	if len(e.observers) > 0 {
		if e.timer != nil {
			e.timer.StartPhase(PhaseObservers)
		}
		snap := e.snapshot(passed)
		for _, o := range e.observers {
			o.Observe(snap)
		}
	}
	if e.timer != nil {
		e.timer.EndTick()
	}

	return StepResult{Tick: e.tick, Passed: passed, Alive: len(e.alive), Done: e.done}, nil
}

// Run steps until every agent is terminal. A cancelled context aborts the
// episode with ErrEpisodeAborted; the partial result must be discarded.
func (e *Episode) Run(ctx context.Context) (Result, error) {
	for !e.done {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%w at tick %d: %v", ErrEpisodeAborted, e.tick, err)
		}
		if _, err := e.Step(); err != nil {
			return Result{}, err
		}
	}
	return e.Result(), nil
}

// Result summarizes the episode so far.
func (e *Episode) Result() Result {
	reasons := make(map[TerminalReason]int, len(Reasons))
	for _, a := range e.agents {
		if a.IsTerminal() {
			reasons[a.Reason()]++
		}
	}
	return Result{
		Number:    e.number,
		Ticks:     e.tick,
		Agents:    e.agents,
		Reasons:   reasons,
		Truncated: e.done && len(e.alive) > 0,
	}
}

// Snapshot copies the current state.
func (e *Episode) Snapshot() Snapshot { return e.snapshot(false) }

func (e *Episode) snapshot(passed bool) Snapshot {
	params := e.track.Params()
	active := e.track.Active()

	s := Snapshot{
		Episode:     e.number,
		Tick:        e.tick,
		FieldWidth:  params.FieldWidth,
		FieldHeight: params.FieldHeight,
		TotalPipes:  e.track.Count(),
		Passed:      passed,
		Alive:       len(e.alive),
		Done:        e.done,
		Pipes:       make([]PipeState, len(active)),
		Agents:      make([]AgentState, len(e.agents)),
	}
	for i, p := range active {
		s.Pipes[i] = PipeState{Index: p.Index, Top: p.Top, Bottom: p.Bottom}
	}
	for i, a := range e.agents {
		s.Agents[i] = stateOf(a)
	}
	return s
}

// Tick returns the number of completed ticks.
func (e *Episode) Tick() int { return e.tick }

// Done reports whether the episode has finished.
func (e *Episode) Done() bool { return e.done }

// Alive returns the agents still running, in population order.
func (e *Episode) Alive() []*Agent { return e.alive }

// Agents returns the whole population.
func (e *Episode) Agents() []*Agent { return e.agents }

// Track returns the track driven by the episode.
func (e *Episode) Track() *Track { return e.track }
