// Package trainer runs the generational training loop: every organism of a
// NEAT population flies the same track, fitness is assigned from how each
// agent ended, and the population evolves until a stop condition holds.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/KevinHern/flappy-bird-ai/game"
	"github.com/KevinHern/flappy-bird-ai/neural"
	"github.com/KevinHern/flappy-bird-ai/sim"
	"github.com/KevinHern/flappy-bird-ai/storage"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

// Options configures a training run beyond the loaded config.
type Options struct {
	// RunID names the run in storage. Resumed runs keep the checkpoint's ID.
	RunID string

	// Resume is a checkpoint file or a directory of checkpoints.
	Resume string
	// SeedGenome is a genome file the first population is cloned from.
	SeedGenome string

	CheckpointDir string

	Output *telemetry.OutputManager
	Store  storage.Store

	// Observers see every tick of every generation, e.g. frontends.
	Observers []sim.Observer
}

// Champion is the fittest organism seen so far.
type Champion struct {
	Entry  telemetry.HallEntry
	Genome *genetics.Genome
}

// Trainer owns the population and the reporting of one training run.
type Trainer struct {
	gc   *game.Context
	ncfg *neural.Config
	pop  *neural.Population
	opts Options

	scale     neural.InputScale
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	hof       *telemetry.HallOfFame

	champion *Champion
}

// New builds the starting population: resumed from a checkpoint, cloned from
// a seed genome, or created fresh, in that order of precedence.
func New(gc *game.Context, opts Options) (*Trainer, error) {
	cfg := gc.Cfg
	t := &Trainer{
		gc:        gc,
		ncfg:      neural.NewConfig(cfg),
		opts:      opts,
		scale:     neural.FieldScale(cfg.Field.Width, cfg.Field.Height),
		collector: telemetry.NewCollector(),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks: telemetry.NewBookmarkDetector(10, 10),
		hof:       telemetry.NewHallOfFame(10),
	}

	switch {
	case opts.Resume != "":
		cp, err := LoadCheckpoint(opts.Resume)
		if err != nil {
			return nil, err
		}
		pop, rng, err := cp.Population(t.ncfg)
		if err != nil {
			return nil, err
		}
		t.pop = pop
		t.gc.RNG = rng
		if cp.RunID != "" {
			t.opts.RunID = cp.RunID
		}
		if cp.Champion != nil {
			g, err := neural.FromRecord(cp.Champion.Genome)
			if err != nil {
				return nil, fmt.Errorf("checkpoint champion: %w", err)
			}
			t.champion = &Champion{Entry: *cp.Champion, Genome: g}
			t.hof.Consider(*cp.Champion)
		}
		gc.Log.Info("resumed training", "run_id", t.opts.RunID, "generation", pop.Generation, "population", len(pop.Organisms))

	case opts.SeedGenome != "":
		genome, err := neural.LoadGenome(opts.SeedGenome)
		if err != nil {
			return nil, err
		}
		pop, err := neural.SeedFrom(t.ncfg, gc.RNG, genome)
		if err != nil {
			return nil, fmt.Errorf("seeding population: %w", err)
		}
		t.pop = pop
		gc.Log.Info("seeded population", "genome", opts.SeedGenome, "population", len(pop.Organisms))

	default:
		t.pop = neural.NewPopulation(t.ncfg, gc.RNG)
	}

	if t.opts.RunID == "" {
		t.opts.RunID = fmt.Sprintf("run-%d", gc.Seed)
	}
	return t, nil
}

// Population returns the population being trained.
func (t *Trainer) Population() *neural.Population { return t.pop }

// RunID returns the run identifier used for storage.
func (t *Trainer) RunID() string { return t.opts.RunID }

// HallOfFame returns the best champions of the run.
func (t *Trainer) HallOfFame() *telemetry.HallOfFame { return t.hof }

// Run trains until a stop condition holds and returns the champion. A
// cancelled context discards the generation in progress, checkpoints the
// population as it was before that generation, and returns the champion so
// far with an error wrapping sim.ErrEpisodeAborted.
func (t *Trainer) Run(ctx context.Context) (*Champion, error) {
	log := t.gc.Log
	log.Info("starting training",
		"run_id", t.opts.RunID,
		"seed", t.gc.Seed,
		"generation", t.pop.Generation,
		"generations", t.gc.Cfg.Training.Generations,
		"population", len(t.pop.Organisms),
	)

	for {
		stats, err := t.Evaluate(ctx)
		if err != nil {
			if errors.Is(err, sim.ErrEpisodeAborted) {
				log.Info("training aborted", "generation", t.pop.Generation)
				if cpErr := t.checkpoint(); cpErr != nil {
					log.Error("checkpoint failed", "error", cpErr)
				}
				if finErr := t.finish(context.WithoutCancel(ctx)); finErr != nil {
					log.Error("writing champion failed", "error", finErr)
				}
			}
			return t.champion, err
		}

		if err := t.report(ctx, stats); err != nil {
			return t.champion, err
		}

		reason, stop := stopReason(t.gc.Cfg.Training, generationOutcome{
			generation:  stats.Generation,
			bestFitness: stats.FitnessMax,
			completed:   stats.Completed,
		})

		if err := t.pop.Epoch(); err != nil {
			return t.champion, fmt.Errorf("epoch %d: %w", stats.Generation, err)
		}

		every := t.gc.Cfg.Training.CheckpointEvery
		if stop || (every > 0 && t.pop.Generation%every == 0) {
			if err := t.checkpoint(); err != nil {
				return t.champion, err
			}
		}

		if stop {
			log.Info("training finished", "reason", reason, "generations", t.pop.Generation)
			if err := t.finish(ctx); err != nil {
				return t.champion, err
			}
			return t.champion, nil
		}
	}
}

// Evaluate flies the current population on one fresh track, assigns fitness
// to every organism and returns the generation stats.
func (t *Trainer) Evaluate(ctx context.Context) (telemetry.GenerationStats, error) {
	cfg := t.gc.Cfg
	generation := t.pop.Generation

	track, err := game.NewTrack(t.gc)
	if err != nil {
		return telemetry.GenerationStats{}, err
	}

	policies := make([]sim.Policy, len(t.pop.Organisms))
	for i, o := range t.pop.Organisms {
		p, err := neural.NewNetworkPolicy(o.Genome, t.ncfg.FlapThreshold, t.scale)
		if err != nil {
			return telemetry.GenerationStats{}, err
		}
		policies[i] = p
	}
	agents, err := game.NewPopulation(t.gc, track, policies)
	if err != nil {
		return telemetry.GenerationStats{}, err
	}

	observers := append([]sim.Observer{t.collector}, t.opts.Observers...)
	ep := sim.NewEpisode(track, agents,
		sim.WithNumber(generation),
		sim.WithMaxTicks(cfg.Training.MaxTicks),
		sim.WithObservers(observers...),
		sim.WithPhaseTimer(t.perf),
	)

	start := time.Now()
	res, err := game.RunOnWorker(ctx, ep)
	if err != nil {
		t.collector.Reset()
		return telemetry.GenerationStats{}, fmt.Errorf("generation %d: %w", generation, err)
	}
	elapsed := time.Since(start)

	fitness := make([]float64, len(agents))
	for i, a := range agents {
		fitness[i] = Fitness(cfg.Fitness, a)
		t.pop.Organisms[i].Fitness = fitness[i]
	}

	stats := t.collector.Flush(generation, res, fitness, t.pop.Species.GetStats().Count, elapsed)
	t.considerChampion(generation, res, fitness)
	return stats, nil
}

func (t *Trainer) considerChampion(generation int, res sim.Result, fitness []float64) {
	best, idx := t.pop.Best()
	if best == nil {
		return
	}
	agent := res.Agents[idx]
	entry := telemetry.HallEntry{
		Generation: generation,
		Fitness:    fitness[idx],
		Pipes:      agent.PipesPassed(),
		Completion: agent.Completion() * 100,
		Genome:     neural.ToRecord(best.Genome),
	}
	t.hof.Consider(entry)

	if t.champion == nil || entry.Fitness > t.champion.Entry.Fitness {
		t.champion = &Champion{Entry: entry, Genome: best.Genome}
	}
}

func (t *Trainer) report(ctx context.Context, stats telemetry.GenerationStats) error {
	log := t.gc.Log
	stats.LogStats(log)
	for _, sp := range t.pop.Species.GetTopSpecies(3) {
		log.Debug("species",
			"generation", stats.Generation,
			"id", sp.ID,
			"size", sp.Size,
			"best_fitness", sp.BestFit,
			"avg_fitness", sp.AvgFit,
			"staleness", sp.Staleness,
		)
	}

	if err := t.opts.Output.WriteGeneration(stats); err != nil {
		return err
	}

	if t.gc.Cfg.Telemetry.WritePerf {
		perf := t.perf.Stats()
		log.Debug("perf", "generation", stats.Generation, "stats", perf)
		if err := t.opts.Output.WritePerf(perf, stats.Generation); err != nil {
			return err
		}
	}

	for _, b := range t.bookmarks.Check(stats) {
		b.LogBookmark(log)
		if err := t.opts.Output.WriteBookmark(b); err != nil {
			return err
		}
	}

	if t.opts.Store != nil {
		if err := t.opts.Store.SaveGeneration(ctx, t.opts.RunID, stats); err != nil {
			return fmt.Errorf("storing generation %d: %w", stats.Generation, err)
		}
	}
	return nil
}

// checkpoint writes the population waiting to be evaluated. The RNG is reset
// to the stored seed so a resumed run continues with the same stream.
func (t *Trainer) checkpoint() error {
	if t.opts.CheckpointDir == "" {
		return nil
	}
	seed := t.gc.RNG.Int63()
	t.gc.RNG.Seed(seed)

	var champion *telemetry.HallEntry
	if t.champion != nil {
		champion = &t.champion.Entry
	}
	path, err := SaveCheckpoint(NewCheckpoint(t.opts.RunID, t.pop, seed, champion), t.opts.CheckpointDir)
	if err != nil {
		return err
	}
	t.gc.Log.Info("checkpoint saved", "path", path, "generation", t.pop.Generation)
	return nil
}

// finish writes the champion and hall of fame.
func (t *Trainer) finish(ctx context.Context) error {
	if err := t.opts.Output.WriteHallOfFame(t.hof); err != nil {
		return err
	}
	if t.champion == nil {
		return nil
	}

	t.gc.Log.Info("champion",
		"generation", t.champion.Entry.Generation,
		"genome_id", t.champion.Genome.Id,
		"fitness", t.champion.Entry.Fitness,
		"pipes_passed", t.champion.Entry.Pipes,
		"track_completed_pct", t.champion.Entry.Completion,
	)
	if err := t.opts.Output.WriteChampion(t.champion.Genome); err != nil {
		return err
	}
	if t.opts.Store != nil {
		if err := t.opts.Store.SaveChampion(ctx, t.opts.RunID, t.champion.Entry); err != nil {
			return fmt.Errorf("storing champion: %w", err)
		}
	}
	return nil
}
