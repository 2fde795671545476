package game

import (
	"sync/atomic"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// HumanPolicy turns flap requests from a frontend into decisions. Frontends
// call RequestFlap from their own goroutine; the episode worker consumes the
// request on its next tick. Several requests between two ticks count once.
type HumanPolicy struct {
	pending atomic.Bool
}

// RequestFlap queues a flap for the next tick.
func (h *HumanPolicy) RequestFlap() { h.pending.Store(true) }

// Decide implements sim.Policy.
func (h *HumanPolicy) Decide(sim.Observation) (bool, error) {
	return h.pending.Swap(false), nil
}

// Clear drops a queued request, used between rounds.
func (h *HumanPolicy) Clear() { h.pending.Store(false) }
