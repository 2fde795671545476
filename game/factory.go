package game

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

// TrackParams maps the configuration onto track parameters using rng for the
// layout.
func TrackParams(cfg *config.Config, rng *rand.Rand) sim.TrackParams {
	return sim.TrackParams{
		PipeWidth:   cfg.Pipes.Width,
		Spacing:     cfg.Derived.Spacing,
		Velocity:    mgl64.Vec2{cfg.Pipes.Velocity, 0},
		Count:       cfg.Pipes.Count,
		FieldWidth:  cfg.Field.Width,
		FieldHeight: cfg.Field.Height,
		GapFraction: cfg.Pipes.GapFraction,
		OffsetMin:   cfg.Pipes.OffsetMin,
		OffsetMax:   cfg.Pipes.OffsetMax,
		AgentX:      cfg.Bird.StartX,
		AgentWidth:  cfg.Bird.Width,
		RNG:         rng,
	}
}

// AgentParams maps the configuration onto agent parameters.
func AgentParams(cfg *config.Config, id int, policy sim.Policy, detector sim.CollisionDetector) sim.AgentParams {
	return sim.AgentParams{
		ID:           id,
		Start:        mgl64.Vec2{cfg.Bird.StartX, cfg.Bird.StartY},
		Diameter:     cfg.Bird.Diameter,
		MaxHeight:    cfg.Derived.MaxHeight,
		TotalPipes:   cfg.Pipes.Count,
		Gravity:      mgl64.Vec2{0, cfg.Physics.Gravity},
		FlapVelocity: mgl64.Vec2{0, cfg.Physics.FlapVelocity},
		Policy:       policy,
		Detector:     detector,
	}
}

// NewDetector returns the collision detector named by bird.collision.
func NewDetector(cfg *config.Config) (sim.CollisionDetector, error) {
	switch cfg.Bird.Collision {
	case config.CollisionRect, "":
		return sim.RectDetector{}, nil
	case config.CollisionMask:
		return sim.NewMaskDetector(cfg.Bird.Diameter), nil
	default:
		return nil, fmt.Errorf("%w: unknown collision detector %q", config.ErrInvalid, cfg.Bird.Collision)
	}
}

// NewTrack creates a track laid out with the context RNG.
func NewTrack(gc *Context) (*sim.Track, error) {
	track, err := sim.NewTrack(TrackParams(gc.Cfg, gc.RNG))
	if err != nil {
		return nil, fmt.Errorf("creating track: %w", err)
	}
	return track, nil
}

// NewAgent creates one agent bound to the head of track.
func NewAgent(gc *Context, track *sim.Track, id int, policy sim.Policy) (*sim.Agent, error) {
	detector, err := NewDetector(gc.Cfg)
	if err != nil {
		return nil, err
	}
	return newAgent(gc.Cfg, track, id, policy, detector)
}

func newAgent(cfg *config.Config, track *sim.Track, id int, policy sim.Policy, detector sim.CollisionDetector) (*sim.Agent, error) {
	a, err := sim.NewAgent(AgentParams(cfg, id, policy, detector), track.Head())
	if err != nil {
		return nil, fmt.Errorf("creating agent %d: %w", id, err)
	}
	return a, nil
}

// NewPopulation creates one agent per policy, in order, with IDs starting at
// zero. The agents share one detector since an episode runs on a single
// goroutine.
func NewPopulation(gc *Context, track *sim.Track, policies []sim.Policy) ([]*sim.Agent, error) {
	detector, err := NewDetector(gc.Cfg)
	if err != nil {
		return nil, err
	}
	agents := make([]*sim.Agent, len(policies))
	for i, p := range policies {
		a, err := newAgent(gc.Cfg, track, i, p, detector)
		if err != nil {
			return nil, err
		}
		agents[i] = a
	}
	return agents, nil
}
