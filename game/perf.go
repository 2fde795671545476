package game

import (
	"time"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Pacer is an observer that holds the episode to a wall-clock tick rate, for
// frontends that show the simulation live. Training runs go without one.
type Pacer struct {
	interval time.Duration
	next     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer returns a pacer for ticksPerSecond. Zero or negative rates disable
// pacing.
func NewPacer(ticksPerSecond int) *Pacer {
	p := &Pacer{now: time.Now, sleep: time.Sleep}
	if ticksPerSecond > 0 {
		p.interval = time.Second / time.Duration(ticksPerSecond)
	}
	return p
}

// Observe implements sim.Observer. A pacer that fell behind by more than one
// interval resynchronizes instead of running fast to catch up.
func (p *Pacer) Observe(sim.Snapshot) {
	if p.interval <= 0 {
		return
	}
	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > p.interval {
		p.next = now.Add(p.interval)
		return
	}
	if wait := p.next.Sub(now); wait > 0 {
		p.sleep(wait)
	}
	p.next = p.next.Add(p.interval)
}

// Interval returns the target time between ticks.
func (p *Pacer) Interval() time.Duration { return p.interval }
