package telemetry

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Collector watches one episode through its snapshots and turns it into
// GenerationStats. It implements sim.Observer.
type Collector struct {
	terminal   []bool
	flaps      int
	agentTicks int
	passes     int
	deathTicks []float64
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Observe implements sim.Observer. Flaps are counted for agents that were
// alive at the start of the tick.
func (c *Collector) Observe(s sim.Snapshot) {
	if c.terminal == nil {
		c.terminal = make([]bool, len(s.Agents))
	}
	for i, a := range s.Agents {
		if i >= len(c.terminal) || c.terminal[i] {
			continue
		}
		c.agentTicks++
		if a.Flapped {
			c.flaps++
		}
		if a.Terminal {
			c.terminal[i] = true
			c.deathTicks = append(c.deathTicks, float64(s.Tick))
		}
	}
	if s.Passed {
		c.passes++
	}
}

// Flush produces the stats of a finished episode and resets the collector.
// fitness is indexed like res.Agents.
func (c *Collector) Flush(generation int, res sim.Result, fitness []float64, species int, elapsed time.Duration) GenerationStats {
	fit := Summarize(fitness)

	stats := GenerationStats{
		Generation:  generation,
		Population:  len(res.Agents),
		Ticks:       res.Ticks,
		Truncated:   res.Truncated,
		FitnessMean: fit.Mean,
		FitnessStd:  fit.Std,
		FitnessP50:  fit.P50,
		FitnessP90:  fit.P90,
		FitnessMax:  fit.Max,
		Collisions:  res.Reasons[sim.ReasonCollision],
		Floor:       res.Reasons[sim.ReasonFloor],
		Ceiling:     res.Reasons[sim.ReasonCeiling],
		Completed:   res.Reasons[sim.ReasonTrackCompleted],
		Flaps:       c.flaps,
		PassEvents:  c.passes,
		Species:     species,
		DurationMS:  elapsed.Milliseconds(),
	}

	if len(res.Agents) > 0 {
		pipes := make([]float64, len(res.Agents))
		for i, a := range res.Agents {
			pipes[i] = float64(a.PipesPassed())
		}
		stats.PipesMean = stat.Mean(pipes, nil)
		stats.PipesMax = int(floats.Max(pipes))
	}

	if _, idx, ok := sim.Fittest(fitness, func(f float64) float64 { return f }); ok && idx < len(res.Agents) {
		best := res.Agents[idx]
		stats.BestID = best.ID()
		stats.BestPipes = best.PipesPassed()
		stats.BestCompletion = best.Completion() * 100
		stats.BestReason = best.Reason().String()
	}

	if c.agentTicks > 0 {
		stats.FlapRate = float64(c.flaps) / float64(c.agentTicks)
	}
	if len(c.deathTicks) > 0 {
		sort.Float64s(c.deathTicks)
		stats.MedianDeathTick = stat.Quantile(0.5, stat.Empirical, c.deathTicks, nil)
	}
	if elapsed > 0 {
		stats.TicksPerS = float64(res.Ticks) / elapsed.Seconds()
	}

	c.Reset()
	return stats
}

// Reset clears the counters for the next episode.
func (c *Collector) Reset() {
	c.terminal = nil
	c.flaps = 0
	c.agentTicks = 0
	c.passes = 0
	c.deathTicks = c.deathTicks[:0]
}
