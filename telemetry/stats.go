// Package telemetry records per-generation training statistics, episode
// performance, milestones and the hall of fame.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes one evaluated generation.
type GenerationStats struct {
	Generation int  `csv:"generation"`
	Population int  `csv:"population"`
	Ticks      int  `csv:"ticks"`
	Truncated  bool `csv:"truncated"`

	// Fitness distribution
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`
	FitnessMax  float64 `csv:"fitness_max"`

	// Fittest organism (first on ties)
	BestID         int     `csv:"best_id"`
	BestPipes      int     `csv:"best_pipes"`
	BestCompletion float64 `csv:"best_completion_pct"`
	BestReason     string  `csv:"best_reason"`

	PipesMean float64 `csv:"pipes_mean"`
	PipesMax  int     `csv:"pipes_max"`

	// Terminal reasons
	Collisions int `csv:"collisions"`
	Floor      int `csv:"floor"`
	Ceiling    int `csv:"ceiling"`
	Completed  int `csv:"completed"`

	// Behaviour over the episode
	Flaps           int     `csv:"flaps"`
	FlapRate        float64 `csv:"flap_rate"`
	PassEvents      int     `csv:"pass_events"`
	MedianDeathTick float64 `csv:"median_death_tick"`

	Species    int     `csv:"species"`
	DurationMS int64   `csv:"duration_ms"`
	TicksPerS  float64 `csv:"ticks_per_sec"`
}

// Distribution holds summary statistics of a sample.
type Distribution struct {
	Mean, Std, P50, P90, Max float64
}

// Summarize computes mean, population standard deviation, empirical
// quantiles and maximum. An empty sample yields zeros.
func Summarize(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Distribution{
		Mean: mean,
		Std:  std,
		P50:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Max:  floats.Max(sorted),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("ticks", s.Ticks),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Int("best_id", s.BestID),
		slog.Int("best_pipes", s.BestPipes),
		slog.Float64("best_completion_pct", s.BestCompletion),
		slog.Int("collisions", s.Collisions),
		slog.Int("floor", s.Floor),
		slog.Int("ceiling", s.Ceiling),
		slog.Int("completed", s.Completed),
		slog.Int("species", s.Species),
		slog.Int64("duration_ms", s.DurationMS),
	)
}

// LogStats logs the generation report.
func (s GenerationStats) LogStats(log *slog.Logger) {
	log.Info("generation",
		"generation", s.Generation,
		"fittest_id", s.BestID,
		"fittest_fitness", s.FitnessMax,
		"pipes_passed", s.BestPipes,
		"track_completed_pct", s.BestCompletion,
		"fitness_mean", s.FitnessMean,
		"fitness_std", s.FitnessStd,
		"collisions", s.Collisions,
		"floor", s.Floor,
		"ceiling", s.Ceiling,
		"completed", s.Completed,
		"ticks", s.Ticks,
		"truncated", s.Truncated,
		"species", s.Species,
		"duration_ms", s.DurationMS,
	)
}
