package game

import (
	"log/slog"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// logRound logs the outcome of a play or replay round.
func logRound(log *slog.Logger, mode string, res sim.Result) {
	attrs := []any{
		"mode", mode,
		"round", res.Number,
		"ticks", res.Ticks,
		"truncated", res.Truncated,
	}
	if best, _, ok := sim.Fittest(res.Agents, sim.ByScore); ok {
		attrs = append(attrs,
			"score", best.Score(),
			"pipes_passed", best.PipesPassed(),
			"track_completed_pct", best.Completion()*100,
			"reason", best.Reason().String(),
		)
	}
	log.Info("round over", attrs...)
}
