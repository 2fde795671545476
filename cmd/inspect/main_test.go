package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/storage"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

func seededStore(t *testing.T) storage.Store {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewStore(config.StorageMemory, "")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for gen := 0; gen < 3; gen++ {
		stats := telemetry.GenerationStats{Generation: gen, FitnessMax: float64(gen) + 0.5, PipesMax: gen}
		if err := store.SaveGeneration(ctx, "run-1", stats); err != nil {
			t.Fatalf("SaveGeneration() error = %v", err)
		}
	}
	if err := store.SaveChampion(ctx, "run-1", telemetry.HallEntry{Generation: 2, Fitness: 2.5, Pipes: 2}); err != nil {
		t.Fatalf("SaveChampion() error = %v", err)
	}
	return store
}

func TestListRuns(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer
	if err := listRuns(context.Background(), &buf, store); err != nil {
		t.Fatalf("listRuns() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 run:\n%s", len(lines), buf.String())
	}
	fields := strings.Fields(lines[1])
	want := []string{"run-1", "3", "2.500", "2"}
	for i, w := range want {
		if fields[i] != w {
			t.Errorf("field %d = %q, want %q", i, fields[i], w)
		}
	}
}

func TestPrintRun(t *testing.T) {
	store := seededStore(t)

	tests := []struct {
		name    string
		run     string
		format  string
		lines   int
		first   string
		wantErr bool
	}{
		{"table", "run-1", "table", 4, "GEN", false},
		{"csv", "run-1", "csv", 4, "generation,", false},
		{"unknown run", "run-9", "table", 0, "", true},
		{"unknown format", "run-1", "xml", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printRun(context.Background(), &buf, store, tt.run, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("printRun() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != tt.lines {
				t.Errorf("got %d lines, want %d:\n%s", len(lines), tt.lines, buf.String())
			}
			if !strings.HasPrefix(strings.TrimSpace(lines[0]), tt.first) {
				t.Errorf("first line %q, want prefix %q", lines[0], tt.first)
			}
		})
	}
}
