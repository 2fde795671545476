package trainer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/game"
	"github.com/KevinHern/flappy-bird-ai/neural"
	"github.com/KevinHern/flappy-bird-ai/sim"
	"github.com/KevinHern/flappy-bird-ai/storage"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

func testGameContext(t *testing.T, seed int64) *game.Context {
	t.Helper()
	cfg := config.MustDefault()
	cfg.Population.Size = 12
	cfg.Pipes.Count = 2
	cfg.Training.Generations = 3
	cfg.Training.MaxTicks = 3000
	cfg.Training.CheckpointEvery = 2
	cfg.Training.StopOnWinner = false
	cfg.Training.FitnessThreshold = 0
	cfg.Recompute()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return game.NewContext(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), seed)
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	n := 0
	s := bufio.NewScanner(f)
	for s.Scan() {
		n++
	}
	return n
}

func TestFitness(t *testing.T) {
	always := sim.PolicyFunc(func(sim.Observation) (bool, error) { return true, nil })
	cfg := config.FitnessConfig{
		TickReward:     0.01,
		PipeReward:     5,
		FloorPenalty:   1,
		CeilingPenalty: 2,
	}

	tests := []struct {
		name   string
		policy sim.Policy
		reason sim.TerminalReason
		want   float64
	}{
		// 52 scored ticks before the floor on tick 53.
		{"floor", sim.Never, sim.ReasonFloor, 0.52 - 1},
		// 38 scored ticks before the ceiling on tick 39.
		{"ceiling", always, sim.ReasonCeiling, 0.38 - 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := testGameContext(t, 1)
			track, err := game.NewTrack(gc)
			if err != nil {
				t.Fatalf("NewTrack() error = %v", err)
			}
			agents, err := game.NewPopulation(gc, track, []sim.Policy{tt.policy})
			if err != nil {
				t.Fatalf("NewPopulation() error = %v", err)
			}
			if _, err := sim.NewEpisode(track, agents).Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			a := agents[0]
			if a.Reason() != tt.reason {
				t.Fatalf("reason = %v, want %v", a.Reason(), tt.reason)
			}
			if got := Fitness(cfg, a); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Fitness() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStopReason(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.TrainingConfig
		outcome  generationOutcome
		want     string
		wantStop bool
	}{
		{"keep going", config.TrainingConfig{Generations: 10}, generationOutcome{generation: 3}, "", false},
		{"last generation", config.TrainingConfig{Generations: 10}, generationOutcome{generation: 9}, "generations", true},
		{"winner", config.TrainingConfig{Generations: 10, StopOnWinner: true}, generationOutcome{generation: 2, completed: 1}, "winner", true},
		{"winner ignored", config.TrainingConfig{Generations: 10}, generationOutcome{generation: 2, completed: 1}, "", false},
		{"threshold", config.TrainingConfig{Generations: 10, FitnessThreshold: 5}, generationOutcome{generation: 1, bestFitness: 5}, "fitness_threshold", true},
		{"below threshold", config.TrainingConfig{Generations: 10, FitnessThreshold: 5}, generationOutcome{generation: 1, bestFitness: 4.9}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stop := stopReason(tt.cfg, tt.outcome)
			if got != tt.want || stop != tt.wantStop {
				t.Errorf("stopReason() = (%q, %v), want (%q, %v)", got, stop, tt.want, tt.wantStop)
			}
		})
	}
}

func TestTrainerRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cpDir := filepath.Join(dir, "checkpoints")

	out, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		t.Fatalf("NewOutputManager() error = %v", err)
	}
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tr, err := New(testGameContext(t, 7), Options{
		RunID:         "test",
		CheckpointDir: cpDir,
		Output:        out,
		Store:         store,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	champ, err := tr.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if champ == nil || champ.Genome == nil {
		t.Fatal("Run() returned no champion")
	}
	if got := tr.Population().Generation; got != 3 {
		t.Errorf("Generation = %d, want 3", got)
	}

	history, err := store.Generations(ctx, "test")
	if err != nil {
		t.Fatalf("Generations() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("stored %d generations, want 3", len(history))
	}
	best := math.Inf(-1)
	for i, st := range history {
		if st.Generation != i {
			t.Errorf("history[%d].Generation = %d", i, st.Generation)
		}
		if st.Population != 12 {
			t.Errorf("generation %d population = %d, want 12", i, st.Population)
		}
		best = math.Max(best, st.FitnessMax)
	}
	if champ.Entry.Fitness != best {
		t.Errorf("champion fitness %v, want best of run %v", champ.Entry.Fitness, best)
	}

	stored, ok, err := store.Champion(ctx, "test")
	if err != nil || !ok {
		t.Fatalf("Champion() ok=%v err=%v", ok, err)
	}
	if stored.Fitness != champ.Entry.Fitness {
		t.Errorf("stored champion fitness %v, want %v", stored.Fitness, champ.Entry.Fitness)
	}

	// Every 2 generations, plus the final one.
	for _, name := range []string{"checkpoint_00002.json", "checkpoint_00003.json"} {
		if _, err := os.Stat(filepath.Join(cpDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	for _, name := range []string{"champion.genome", "champion_network.json", "hall_of_fame.json", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if n := countLines(t, filepath.Join(outDir, "generations.csv")); n != 4 {
		t.Errorf("generations.csv has %d lines, want header + 3", n)
	}

	if _, err := neural.LoadGenome(filepath.Join(outDir, "champion.genome")); err != nil {
		t.Errorf("champion genome does not load: %v", err)
	}
}

func TestTrainerStopsOnThresholdAndResumes(t *testing.T) {
	ctx := context.Background()
	cpDir := t.TempDir()

	gc := testGameContext(t, 11)
	gc.Cfg.Training.Generations = 50
	gc.Cfg.Training.FitnessThreshold = 1e-9

	tr, err := New(gc, Options{RunID: "resume-me", CheckpointDir: cpDir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := tr.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := tr.Population().Generation; got != 1 {
		t.Fatalf("Generation = %d, want a stop after the first generation", got)
	}

	cp, err := LoadCheckpoint(cpDir)
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if cp.Generation != 1 || cp.RunID != "resume-me" || cp.Champion == nil {
		t.Fatalf("checkpoint = gen %d run %q champion %v", cp.Generation, cp.RunID, cp.Champion)
	}

	resumed, err := New(testGameContext(t, 99), Options{Resume: cpDir})
	if err != nil {
		t.Fatalf("New(resume) error = %v", err)
	}
	pop := resumed.Population()
	if pop.Generation != 1 {
		t.Errorf("resumed Generation = %d, want 1", pop.Generation)
	}
	if resumed.RunID() != "resume-me" {
		t.Errorf("resumed RunID = %q", resumed.RunID())
	}
	if len(pop.Organisms) != len(cp.Genomes) {
		t.Errorf("resumed %d organisms, checkpoint holds %d", len(pop.Organisms), len(cp.Genomes))
	}
	nextID, nextNode, nextInnov := pop.IDs.Counters()
	if nextID != cp.NextGenomeID || nextNode != cp.NextNodeID || nextInnov != cp.NextInnovation {
		t.Errorf("counters = (%d, %d, %d), want (%d, %d, %d)",
			nextID, nextNode, nextInnov, cp.NextGenomeID, cp.NextNodeID, cp.NextInnovation)
	}
	for i, o := range pop.Organisms {
		if o.Genome.Id != cp.Genomes[i].ID {
			t.Errorf("organism %d genome %d, want %d", i, o.Genome.Id, cp.Genomes[i].ID)
		}
	}
	if top, ok := resumed.HallOfFame().Top(); !ok || top.Fitness != cp.Champion.Fitness {
		t.Errorf("hall of fame not restored: %+v", top)
	}
}

func TestTrainerAbortCheckpoints(t *testing.T) {
	cpDir := t.TempDir()
	tr, err := New(testGameContext(t, 3), Options{CheckpointDir: cpDir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	champ, err := tr.Run(ctx)
	if !errors.Is(err, sim.ErrEpisodeAborted) {
		t.Fatalf("Run() error = %v, want ErrEpisodeAborted", err)
	}
	if champ != nil {
		t.Errorf("champion %v from an aborted first generation", champ)
	}
	if tr.Population().Generation != 0 {
		t.Errorf("Generation = %d, the aborted generation must not count", tr.Population().Generation)
	}

	cp, err := LoadCheckpoint(filepath.Join(cpDir, "checkpoint_00000.json"))
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}
	if cp.Generation != 0 || len(cp.Genomes) != 12 {
		t.Errorf("checkpoint gen %d with %d genomes", cp.Generation, len(cp.Genomes))
	}
}

func TestTrainerSeedGenome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.genome")
	seed := neural.CreateMinimalBrainGenome(1, 0.5)
	if err := neural.SaveGenome(path, seed); err != nil {
		t.Fatalf("SaveGenome() error = %v", err)
	}

	tr, err := New(testGameContext(t, 5), Options{SeedGenome: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pop := tr.Population()
	if len(pop.Organisms) != 12 {
		t.Fatalf("got %d organisms, want 12", len(pop.Organisms))
	}
	// The first organism is an unmutated copy.
	first := pop.Organisms[0].Genome
	if len(first.Genes) != len(seed.Genes) {
		t.Fatalf("first organism has %d genes, seed has %d", len(first.Genes), len(seed.Genes))
	}
	for i, g := range first.Genes {
		if g.Link.ConnectionWeight != seed.Genes[i].Link.ConnectionWeight {
			t.Errorf("gene %d weight %v, want %v", i, g.Link.ConnectionWeight, seed.Genes[i].Link.ConnectionWeight)
		}
	}
	if tr.RunID() != "run-5" {
		t.Errorf("RunID() = %q, want run-5", tr.RunID())
	}
}

func TestLatestCheckpoint(t *testing.T) {
	dir := t.TempDir()
	if _, err := LatestCheckpoint(dir); err == nil {
		t.Error("LatestCheckpoint() on an empty dir should fail")
	}
	for _, name := range []string{"checkpoint_00002.json", "checkpoint_00010.json", "checkpoint_00009.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := LatestCheckpoint(dir)
	if err != nil {
		t.Fatalf("LatestCheckpoint() error = %v", err)
	}
	if filepath.Base(got) != "checkpoint_00010.json" {
		t.Errorf("LatestCheckpoint() = %s, want checkpoint_00010.json", got)
	}
}

func TestLoadCheckpointRejectsOtherVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint_00001.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "genomes": [{}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCheckpoint(path); err == nil {
		t.Error("LoadCheckpoint() accepted an unknown version")
	}
}
