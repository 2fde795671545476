// Network export tool - converts a genome file or a hall-of-fame entry into
// the layered network JSON.
//
// Usage: go run ./cmd/export -genome output/champion.genome -out network.json
//
//	go run ./cmd/export -hall output/hall_of_fame.json -rank 0
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/KevinHern/flappy-bird-ai/neural"
	"github.com/KevinHern/flappy-bird-ai/sim"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

func main() {
	genomePath := flag.String("genome", "", "Genome file (plain or YAML encoding by extension)")
	hallPath := flag.String("hall", "", "Hall of fame JSON written by a training run")
	rank := flag.Int("rank", 0, "Hall of fame entry to export (0 = best)")
	outPath := flag.String("out", "", "Output JSON file (empty = stdout)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	genome, err := loadGenome(*genomePath, *hallPath, *rank)
	if err != nil {
		slog.Error("failed to load genome", "error", err)
		os.Exit(1)
	}
	if err := neural.CheckBrainLayout(genome); err != nil {
		slog.Error("genome does not fit the flap network", "error", err)
		os.Exit(1)
	}

	if *outPath != "" {
		if err := neural.WriteNetworkJSON(*outPath, genome, sim.InputNames); err != nil {
			slog.Error("failed to write network", "error", err)
			os.Exit(1)
		}
		slog.Info("network exported", "genome_id", genome.Id, "path", *outPath)
		return
	}

	export, err := neural.ExportNetwork(genome, sim.InputNames)
	if err != nil {
		slog.Error("failed to export network", "error", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		slog.Error("failed to write network", "error", err)
		os.Exit(1)
	}
}

func loadGenome(genomePath, hallPath string, rank int) (*genetics.Genome, error) {
	switch {
	case genomePath != "" && hallPath != "":
		return nil, fmt.Errorf("-genome and -hall are exclusive")
	case genomePath != "":
		return neural.LoadGenome(genomePath)
	case hallPath != "":
		hof, err := telemetry.LoadHallOfFame(hallPath)
		if err != nil {
			return nil, err
		}
		entries := hof.Entries()
		if rank < 0 || rank >= len(entries) {
			return nil, fmt.Errorf("rank %d out of range, hall has %d entries", rank, len(entries))
		}
		return neural.FromRecord(entries[rank].Genome)
	default:
		return nil, fmt.Errorf("one of -genome or -hall is required")
	}
}
