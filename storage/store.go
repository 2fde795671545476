// Package storage persists training run history: one summary per generation
// and the champion of each run.
package storage

import (
	"context"

	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

// Store defines persistence operations for training runs.
type Store interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, runID string, stats telemetry.GenerationStats) error
	Generations(ctx context.Context, runID string) ([]telemetry.GenerationStats, error)
	SaveChampion(ctx context.Context, runID string, champion telemetry.HallEntry) error
	Champion(ctx context.Context, runID string) (telemetry.HallEntry, bool, error)
	Runs(ctx context.Context) ([]string, error)
	Close() error
}
