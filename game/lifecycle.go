package game

import (
	"context"
	"errors"
	"math/rand"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// PolicyFactory builds a fresh policy. Replays call it once per episode so
// policies with internal state are never shared between workers.
type PolicyFactory func() (sim.Policy, error)

// Play runs rounds of a single human-controlled agent. When the agent reaches
// a terminal state the track and agent are reset and a new round starts.
// Play returns the finished rounds once ctx is cancelled; the round in
// progress at that moment is discarded.
func Play(ctx context.Context, gc *Context, input *HumanPolicy, observers ...sim.Observer) ([]sim.Result, error) {
	track, err := NewTrack(gc)
	if err != nil {
		return nil, err
	}
	agent, err := NewAgent(gc, track, 0, input)
	if err != nil {
		return nil, err
	}

	var results []sim.Result
	for round := 1; ; round++ {
		if ctx.Err() != nil {
			return results, nil
		}
		if round > 1 {
			track.Reset()
			agent.Reset(track.Head())
			input.Clear()
		}

		ep := sim.NewEpisode(track, []*sim.Agent{agent},
			sim.WithNumber(round),
			sim.WithMaxTicks(gc.Cfg.Training.MaxTicks),
			sim.WithObservers(observers...),
		)
		res, err := RunOnWorker(ctx, ep)
		if err != nil {
			if errors.Is(err, sim.ErrEpisodeAborted) {
				return results, nil
			}
			return results, err
		}
		logRound(gc.Log, "play", res)
		results = append(results, res)
	}
}

// Replay runs a trained policy on fresh tracks. A non-positive episodes count
// uses training.replay_episodes. Episodes run one at a time on a worker; the
// next one starts only after the previous one finished. Each episode gets its
// own layout RNG derived from the context RNG.
func Replay(ctx context.Context, gc *Context, newPolicy PolicyFactory, episodes int, observers ...sim.Observer) ([]sim.Result, error) {
	if episodes <= 0 {
		episodes = max(1, gc.Cfg.Training.ReplayEpisodes)
	}

	eps := make([]*sim.Episode, episodes)
	for i := range eps {
		track, err := sim.NewTrack(TrackParams(gc.Cfg, rand.New(rand.NewSource(gc.RNG.Int63()))))
		if err != nil {
			return nil, err
		}
		policy, err := newPolicy()
		if err != nil {
			return nil, err
		}
		agent, err := NewAgent(gc, track, 0, policy)
		if err != nil {
			return nil, err
		}
		eps[i] = sim.NewEpisode(track, []*sim.Agent{agent},
			sim.WithNumber(i+1),
			sim.WithMaxTicks(gc.Cfg.Training.MaxTicks),
			sim.WithObservers(observers...),
		)
	}

	results := make([]sim.Result, 0, len(eps))
	for _, ep := range eps {
		res, err := RunOnWorker(ctx, ep)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	for _, res := range results {
		logRound(gc.Log, "replay", res)
	}
	return results, nil
}
