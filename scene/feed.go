package scene

import (
	"sync"
	"sync/atomic"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Feed carries snapshots from the simulation goroutine to a frontend. Observe
// never blocks: when the buffer is full the oldest pending snapshot is dropped.
type Feed struct {
	mu      sync.Mutex
	ch      chan sim.Snapshot
	dropped atomic.Int64
}

// NewFeed creates a feed holding up to buffer pending snapshots.
func NewFeed(buffer int) *Feed {
	if buffer < 1 {
		buffer = 1
	}
	return &Feed{ch: make(chan sim.Snapshot, buffer)}
}

// Observe implements sim.Observer.
func (f *Feed) Observe(s sim.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
			f.dropped.Add(1)
		default:
		}
	}
}

// C returns the channel the frontend reads from.
func (f *Feed) C() <-chan sim.Snapshot { return f.ch }

// Dropped returns how many snapshots were discarded.
func (f *Feed) Dropped() int64 { return f.dropped.Load() }
