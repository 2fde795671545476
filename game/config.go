// Package game wires the simulation core to a loaded configuration: track and
// agent factories, the episode worker, human play and replays.
package game

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/KevinHern/flappy-bird-ai/config"
)

// Context holds what every factory and loop needs. It is passed explicitly
// instead of living in package state.
//
// The RNG is not safe for concurrent use. It is only touched by the goroutine
// that currently owns the episode, which RunOnWorker guarantees.
type Context struct {
	Cfg  *config.Config
	Log  *slog.Logger
	RNG  *rand.Rand
	Seed int64
}

// NewContext builds a context. A zero seed is replaced by the current time and
// a nil logger by slog.Default().
func NewContext(cfg *config.Config, log *slog.Logger, seed int64) *Context {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Cfg:  cfg,
		Log:  log,
		RNG:  rand.New(rand.NewSource(seed)),
		Seed: seed,
	}
}
