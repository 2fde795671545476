// Run history tool - prints the training history kept in a SQLite store.
//
// Usage: go run ./cmd/inspect -db runs.db
//
//	go run ./cmd/inspect -db runs.db -run run-42 -format csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/gocarina/gocsv"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/storage"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

func main() {
	dbPath := flag.String("db", "runs.db", "SQLite database written by training runs")
	runID := flag.String("run", "", "Run to print (empty = list runs)")
	format := flag.String("format", "table", "Output format: table | csv")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if _, err := os.Stat(*dbPath); err != nil {
		slog.Error("database not found", "path", *dbPath, "error", err)
		os.Exit(1)
	}

	store, err := storage.NewStore(config.StorageSQLite, *dbPath)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	if *runID == "" {
		err = listRuns(ctx, os.Stdout, store)
	} else {
		err = printRun(ctx, os.Stdout, store, *runID, *format)
	}
	if err != nil {
		slog.Error("inspect failed", "error", err)
		os.Exit(1)
	}
}

func listRuns(ctx context.Context, w io.Writer, store storage.Store) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tGENERATIONS\tCHAMPION FITNESS\tCHAMPION PIPES")
	for _, run := range runs {
		gens, err := store.Generations(ctx, run)
		if err != nil {
			return err
		}
		champ, ok, err := store.Champion(ctx, run)
		if err != nil {
			return err
		}
		fitness, pipes := "-", "-"
		if ok {
			fitness = fmt.Sprintf("%.3f", champ.Fitness)
			pipes = fmt.Sprintf("%d", champ.Pipes)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", run, len(gens), fitness, pipes)
	}
	return tw.Flush()
}

func printRun(ctx context.Context, w io.Writer, store storage.Store, runID, format string) error {
	gens, err := store.Generations(ctx, runID)
	if err != nil {
		return err
	}
	if len(gens) == 0 {
		return fmt.Errorf("no generations stored for run %q", runID)
	}

	switch format {
	case "csv":
		return gocsv.Marshal(&gens, w)
	case "table":
		return printTable(w, gens)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printTable(w io.Writer, gens []telemetry.GenerationStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "GEN\tFIT MAX\tFIT MEAN\tPIPES MAX\tCOMPLETED\tSPECIES\tTICKS\t")
	for _, g := range gens {
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%d\t%d\t%d\t%d\t\n",
			g.Generation, g.FitnessMax, g.FitnessMean, g.PipesMax, g.Completed, g.Species, g.Ticks)
	}
	return tw.Flush()
}
