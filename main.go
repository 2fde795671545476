package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/KevinHern/flappy-bird-ai/audio"
	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/game"
	"github.com/KevinHern/flappy-bird-ai/neural"
	"github.com/KevinHern/flappy-bird-ai/renderer"
	"github.com/KevinHern/flappy-bird-ai/scene"
	"github.com/KevinHern/flappy-bird-ai/sim"
	"github.com/KevinHern/flappy-bird-ai/storage"
	"github.com/KevinHern/flappy-bird-ai/stream"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
	"github.com/KevinHern/flappy-bird-ai/trainer"
	"github.com/KevinHern/flappy-bird-ai/tui"
)

const (
	modeTrain  = "train"
	modePlay   = "play"
	modeReplay = "replay"

	uiWindow   = "window"
	uiTerminal = "terminal"
	uiNone     = "none"
)

type options struct {
	mode          string
	ui            string
	configPath    string
	seed          int64
	outputDir     string
	checkpointDir string
	resume        string
	genome        string
	runID         string
	generations   int
	episodes      int
	streamAddr    string
	store         string
	dbPath        string
	sound         bool
}

// frontend draws snapshots on the main goroutine until the user closes it.
type frontend interface {
	Run(ctx context.Context) error
}

func main() {
	// CLI flags
	var opts options
	flag.StringVar(&opts.mode, "mode", modeTrain, "Mode: train | play | replay")
	flag.StringVar(&opts.ui, "ui", uiWindow, "Frontend: window | terminal | none")
	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.Int64Var(&opts.seed, "seed", 0, "RNG seed (0 = time-based)")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Output directory for CSV logs, config snapshot and champion")
	flag.StringVar(&opts.checkpointDir, "checkpoint-dir", "", "Directory for training checkpoints (empty = disabled)")
	flag.StringVar(&opts.resume, "resume", "", "Checkpoint file or directory to resume training from")
	flag.StringVar(&opts.genome, "genome", "", "Genome file: seeds training, or the network flown in replay")
	flag.StringVar(&opts.runID, "run-id", "", "Run identifier in storage (replay loads its champion when -genome is empty)")
	flag.IntVar(&opts.generations, "generations", 0, "Generation limit (0 = use config)")
	flag.IntVar(&opts.episodes, "episodes", 0, "Replay episodes (0 = use config)")
	flag.StringVar(&opts.streamAddr, "stream-addr", "", "Spectator websocket address, e.g. :8080 (empty = use config)")
	flag.StringVar(&opts.store, "store", "", "Run history backend: memory | sqlite (empty = use config)")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite database path (empty = use config)")
	flag.BoolVar(&opts.sound, "sound", false, "Play sound cues in play mode")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging). The terminal
	// frontend owns stdout, so its logs go to the output directory.
	logOut, closeLog, err := logWriter(opts)
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	logger := slog.New(slog.NewJSONHandler(logOut, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		slog.Error("run failed", "mode", opts.mode, "error", err)
		closeLog()
		os.Exit(1)
	}
}

func logWriter(opts options) (io.Writer, func(), error) {
	if opts.ui != uiTerminal {
		return os.Stdout, func() {}, nil
	}
	if opts.outputDir == "" {
		return io.Discard, func() {}, nil
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(opts.outputDir, "run.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.generations > 0 {
		cfg.Training.Generations = opts.generations
	}
	if opts.streamAddr != "" {
		cfg.Stream.Addr = opts.streamAddr
	}
	if opts.store != "" {
		cfg.Storage.Kind = opts.store
	}
	if opts.dbPath != "" {
		cfg.Storage.Path = opts.dbPath
	}
	if opts.sound {
		cfg.Audio.Enabled = true
	}
	cfg.Recompute()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	switch opts.mode {
	case modeTrain, modePlay, modeReplay:
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	switch opts.ui {
	case uiWindow, uiTerminal, uiNone:
	default:
		return fmt.Errorf("unknown ui %q", opts.ui)
	}
	if opts.mode == modePlay && opts.ui == uiNone {
		return errors.New("play mode needs a window or terminal frontend")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gc := game.NewContext(cfg, logger, seed)

	output, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initializing %s store: %w", cfg.Storage.Kind, err)
	}

	var observers []sim.Observer
	var feed *scene.Feed
	if opts.ui != uiNone {
		feed = scene.NewFeed(4)
		observers = append(observers, feed, game.NewPacer(cfg.Screen.TargetFPS))
	}
	if cfg.Stream.Addr != "" {
		hub := stream.NewHub(cfg.Stream, logger)
		go func() {
			if err := hub.Serve(ctx, cfg.Stream.Addr); err != nil {
				logger.Error("stream server stopped", "error", err)
			}
		}()
		observers = append(observers, hub)
	}

	var input *game.HumanPolicy
	var onFlap func()
	if opts.mode == modePlay {
		input = &game.HumanPolicy{}
		onFlap = input.RequestFlap
		player := audio.NewPlayer(cfg.Audio, logger)
		defer player.Close()
		observers = append(observers, player)
	}

	work := func(ctx context.Context) error {
		switch opts.mode {
		case modeTrain:
			return train(ctx, gc, opts, output, store, observers)
		case modePlay:
			return play(ctx, gc, input, observers)
		default:
			return replay(ctx, gc, opts, store, observers)
		}
	}

	if opts.ui == uiNone {
		return work(ctx)
	}

	fe, closeFrontend, err := openFrontend(opts, cfg, feed, onFlap)
	if err != nil {
		return err
	}
	defer closeFrontend()

	// The simulation runs on a worker goroutine; the frontend keeps the main
	// goroutine. Closing the frontend aborts the simulation, and a finished
	// simulation closes the frontend.
	simCtx, cancelSim := context.WithCancel(ctx)
	defer cancelSim()
	uiCtx, cancelUI := context.WithCancel(ctx)
	defer cancelUI()

	errc := make(chan error, 1)
	go func() {
		errc <- work(simCtx)
		cancelUI()
	}()

	uiErr := fe.Run(uiCtx)
	cancelSim()
	if err := <-errc; err != nil {
		return err
	}
	return uiErr
}

func openFrontend(opts options, cfg *config.Config, feed *scene.Feed, onFlap func()) (frontend, func(), error) {
	switch opts.ui {
	case uiTerminal:
		screen, err := tui.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("opening terminal: %w", err)
		}
		t := tui.New(screen, feed, tui.Options{Title: cfg.Screen.Title, Mode: opts.mode, OnFlap: onFlap})
		return t, screen.Fini, nil
	default:
		w := renderer.NewWindow(feed, renderer.Options{
			Width:     cfg.Screen.Width,
			Height:    cfg.Screen.Height,
			TargetFPS: cfg.Screen.TargetFPS,
			Title:     cfg.Screen.Title,
			Mode:      opts.mode,
			OnFlap:    onFlap,
		})
		return w, w.Close, nil
	}
}

func train(ctx context.Context, gc *game.Context, opts options, output *telemetry.OutputManager, store storage.Store, observers []sim.Observer) error {
	tr, err := trainer.New(gc, trainer.Options{
		RunID:         opts.runID,
		Resume:        opts.resume,
		SeedGenome:    opts.genome,
		CheckpointDir: opts.checkpointDir,
		Output:        output,
		Store:         store,
		Observers:     observers,
	})
	if err != nil {
		return err
	}

	champion, err := tr.Run(ctx)
	if errors.Is(err, sim.ErrEpisodeAborted) {
		gc.Log.Info("training interrupted", "run_id", tr.RunID(), "generation", tr.Population().Generation)
		return nil
	}
	if err != nil {
		return err
	}
	if champion != nil {
		gc.Log.Info("training complete",
			"run_id", tr.RunID(),
			"champion_generation", champion.Entry.Generation,
			"champion_fitness", champion.Entry.Fitness,
			"champion_pipes", champion.Entry.Pipes,
			"output_dir", output.Dir(),
		)
	}
	return nil
}

func play(ctx context.Context, gc *game.Context, input *game.HumanPolicy, observers []sim.Observer) error {
	results, err := game.Play(ctx, gc, input, observers...)
	if err != nil {
		return err
	}
	best := 0
	for _, res := range results {
		best = max(best, res.Agents[0].PipesPassed())
	}
	gc.Log.Info("play finished", "rounds", len(results), "best_pipes", best)
	return nil
}

func replay(ctx context.Context, gc *game.Context, opts options, store storage.Store, observers []sim.Observer) error {
	genome, err := replayGenome(ctx, opts, store)
	if err != nil {
		return err
	}
	if err := neural.CheckBrainLayout(genome); err != nil {
		return err
	}

	threshold := neural.NewConfig(gc.Cfg).FlapThreshold
	scale := neural.FieldScale(gc.Cfg.Field.Width, gc.Cfg.Field.Height)
	newPolicy := func() (sim.Policy, error) {
		return neural.NewNetworkPolicy(genome, threshold, scale)
	}

	results, err := game.Replay(ctx, gc, newPolicy, opts.episodes, observers...)
	if errors.Is(err, sim.ErrEpisodeAborted) {
		gc.Log.Info("replay interrupted", "episodes", len(results))
		return nil
	}
	if err != nil {
		return err
	}

	completed := 0
	for _, res := range results {
		if res.Reasons[sim.ReasonTrackCompleted] > 0 {
			completed++
		}
	}
	gc.Log.Info("replay finished", "genome_id", genome.Id, "episodes", len(results), "completed", completed)
	return nil
}

func replayGenome(ctx context.Context, opts options, store storage.Store) (*genetics.Genome, error) {
	if opts.genome != "" {
		return neural.LoadGenome(opts.genome)
	}
	if opts.runID == "" {
		return nil, errors.New("replay needs -genome or -run-id")
	}
	entry, ok, err := store.Champion(ctx, opts.runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no champion stored for run %q", opts.runID)
	}
	return neural.FromRecord(entry.Genome)
}
