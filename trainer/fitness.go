package trainer

import (
	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Fitness scores a finished agent: a reward per survived tick and per passed
// pipe, a bonus for completing the track, and a penalty chosen by how the
// agent died.
func Fitness(cfg config.FitnessConfig, a *sim.Agent) float64 {
	f := cfg.TickReward*a.Score() + cfg.PipeReward*float64(a.PipesPassed())
	switch a.Reason() {
	case sim.ReasonTrackCompleted:
		f += cfg.CompletionBonus
	case sim.ReasonCollision:
		f -= cfg.CollisionPenalty
	case sim.ReasonFloor:
		f -= cfg.FloorPenalty
	case sim.ReasonCeiling:
		f -= cfg.CeilingPenalty
	}
	return f
}

// stopReason reports whether training should stop after an evaluated
// generation, and why.
func stopReason(cfg config.TrainingConfig, stats generationOutcome) (string, bool) {
	switch {
	case cfg.StopOnWinner && stats.completed > 0:
		return "winner", true
	case cfg.FitnessThreshold > 0 && stats.bestFitness >= cfg.FitnessThreshold:
		return "fitness_threshold", true
	case stats.generation+1 >= cfg.Generations:
		return "generations", true
	}
	return "", false
}

type generationOutcome struct {
	generation  int
	bestFitness float64
	completed   int
}
