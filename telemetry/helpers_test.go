package telemetry

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// runEpisode plays one short two-pipe episode with one agent per policy.
func runEpisode(t *testing.T, policies []sim.Policy, opts ...sim.Option) sim.Result {
	t.Helper()

	track, err := sim.NewTrack(sim.TrackParams{
		PipeWidth:   50,
		Spacing:     175,
		Velocity:    mgl64.Vec2{2, 0},
		Count:       2,
		FieldWidth:  500,
		FieldHeight: 800,
		GapFraction: 0.3125,
		OffsetMin:   0.05,
		OffsetMax:   0.6,
		AgentX:      125,
		AgentWidth:  48,
		RNG:         rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}

	agents := make([]*sim.Agent, len(policies))
	for i, p := range policies {
		agents[i], err = sim.NewAgent(sim.AgentParams{
			ID:           i,
			Start:        mgl64.Vec2{125, 300},
			Diameter:     48,
			MaxHeight:    652,
			TotalPipes:   2,
			Gravity:      mgl64.Vec2{0, 0.25},
			FlapVelocity: mgl64.Vec2{0, -8},
			Policy:       p,
		}, track.Head())
		if err != nil {
			t.Fatalf("NewAgent: %v", err)
		}
	}

	res, err := sim.NewEpisode(track, agents, opts...).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// flapEvery flaps on every n-th decision.
func flapEvery(n int) sim.Policy {
	calls := 0
	return sim.PolicyFunc(func(sim.Observation) (bool, error) {
		calls++
		return calls%n == 0, nil
	})
}
