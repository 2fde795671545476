package game

import (
	"context"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

type outcome struct {
	res sim.Result
	err error
}

// RunOnWorker runs ep on its own goroutine and blocks until it finishes. The
// episode checks ctx between ticks; a cancelled context returns
// sim.ErrEpisodeAborted and the partial result must be discarded.
//
// The caller must not touch ep, its track or its agents until RunOnWorker
// returns. The worker has exited by then.
func RunOnWorker(ctx context.Context, ep *sim.Episode) (sim.Result, error) {
	done := make(chan outcome, 1)
	go func() {
		res, err := ep.Run(ctx)
		done <- outcome{res: res, err: err}
	}()
	out := <-done
	return out.res, out.err
}
