package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/neural"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// nil receivers are no-ops
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Errorf("WriteGeneration on nil: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestOutputManager_WritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for gen := 0; gen < 3; gen++ {
		if err := om.WriteGeneration(GenerationStats{Generation: gen, BestPipes: gen * 2}); err != nil {
			t.Fatalf("WriteGeneration: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkNewRecord, Generation: 1, Description: "x"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatalf("read generations.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "generation,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "generation,population") != 1 {
		t.Error("header written more than once")
	}

	perf, _ := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if !strings.Contains(string(perf), "track_pct") {
		t.Error("perf.csv missing phase columns")
	}
}

func TestOutputManager_ConfigAndChampion(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	if err := om.WriteConfig(config.MustDefault()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.WriteChampion(neural.CreateMinimalBrainGenome(3, 0.5)); err != nil {
		t.Fatalf("WriteChampion: %v", err)
	}

	for _, name := range []string{"config.yaml", "champion.genome", "champion_network.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
