package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/genyal/internal/problem"
	"github.com/cwbudde/genyal/internal/store"
	"github.com/cwbudde/genyal/pkg/genetic"
)

var (
	problemName string
	configPath  string
	runFlags    problem.Settings
	dataDir     string
	storeKind   string
	traceRun    bool
	progress    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve a problem once",
	Long: `Solves a registered problem and prints the fittest individual.

Settings start from the problem defaults, then a TOML file given with --config,
then any flag that is set. With --data the run is recorded in the store and can
be inspected later with "genyal runs".`,
	RunE: runProblem,
}

func init() {
	runCmd.Flags().StringVarP(&problemName, "problem", "p", "word", "Problem to solve (see \"genyal problems\")")
	runCmd.Flags().StringVar(&configPath, "config", "", "TOML settings file")
	runCmd.Flags().IntVar(&runFlags.Population, "population", 0, "Population size")
	runCmd.Flags().IntVar(&runFlags.GenomeLength, "genome-length", 0, "Genes per individual")
	runCmd.Flags().Float64Var(&runFlags.MutationRate, "mutation-rate", 0, "Probability of keeping a gene during mutation")
	runCmd.Flags().IntVar(&runFlags.Matches, "matches", 0, "Tournament size")
	runCmd.Flags().Float64Var(&runFlags.EliteFraction, "elite", 0, "Fraction of the population carried over unchanged")
	runCmd.Flags().IntVar(&runFlags.MaxGenerations, "generations", 0, "Maximum number of generations")
	runCmd.Flags().IntVar(&runFlags.StaleWindow, "stale", 0, "Stop after this many generations without improvement")
	runCmd.Flags().IntVar(&runFlags.Workers, "workers", 0, "Parallel fitness evaluations")
	runCmd.Flags().Int64Var(&runFlags.Seed, "seed", 0, "Random seed")
	runCmd.Flags().StringVar(&runFlags.Target, "target", "", "Problem target (word, integer or product)")
	runCmd.Flags().StringVar(&dataDir, "data", "", "Data directory for run records (empty disables persistence)")
	runCmd.Flags().StringVar(&storeKind, "store", "fs", "Run store: fs or sqlite")
	runCmd.Flags().BoolVar(&traceRun, "trace", false, "Write the per-generation trace (requires --data)")
	runCmd.Flags().IntVar(&progress, "progress", 0, "Print progress every N generations (0 = off)")

	rootCmd.AddCommand(runCmd)
}

// flagOverrides collects the settings whose flags were set on the command line,
// so that an explicit 0 overrides the defaults.
func flagOverrides(changed func(name string) bool, s problem.Settings) problem.Overrides {
	var o problem.Overrides
	if changed("population") {
		o.Population = &s.Population
	}
	if changed("genome-length") {
		o.GenomeLength = &s.GenomeLength
	}
	if changed("mutation-rate") {
		o.MutationRate = &s.MutationRate
	}
	if changed("matches") {
		o.Matches = &s.Matches
	}
	if changed("elite") {
		o.EliteFraction = &s.EliteFraction
	}
	if changed("generations") {
		o.MaxGenerations = &s.MaxGenerations
	}
	if changed("stale") {
		o.StaleWindow = &s.StaleWindow
	}
	if changed("workers") {
		o.Workers = &s.Workers
	}
	if changed("seed") {
		o.Seed = &s.Seed
	}
	if changed("target") {
		o.Target = &s.Target
	}
	return o
}

// resolveSettings layers the problem defaults, an optional TOML file and the
// flag overrides, and validates the result.
func resolveSettings(p problem.Problem, path string, overrides problem.Overrides) (problem.Settings, error) {
	settings := p.Defaults()
	if path != "" {
		loaded, err := problem.LoadSettings(path, settings)
		if err != nil {
			return problem.Settings{}, err
		}
		settings = loaded
	}
	settings = settings.Apply(overrides)
	if err := settings.Validate(); err != nil {
		return problem.Settings{}, err
	}
	return settings, nil
}

// progressPrinter returns an observer that prints every n-th generation.
func progressPrinter(w io.Writer, n int) genetic.Observer {
	return func(stats genetic.GenerationStats) {
		if stats.Generation%n != 0 {
			return
		}
		fmt.Fprintf(w, "generation %6d  best %-12g mean %-12g %s\n",
			stats.Generation, stats.Best, stats.Mean, stats.Fittest)
	}
}

// chain combines observers into one.
func chain(observers ...genetic.Observer) genetic.Observer {
	if len(observers) == 0 {
		return nil
	}
	return func(stats genetic.GenerationStats) {
		for _, observe := range observers {
			observe(stats)
		}
	}
}

func runProblem(cmd *cobra.Command, args []string) error {
	p, err := problem.Get(problemName)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(p, configPath, flagOverrides(cmd.Flags().Changed, runFlags))
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if traceRun && dataDir == "" {
		return fmt.Errorf("--trace requires --data")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runID := uuid.New().String()
	out := cmd.OutOrStdout()

	var runStore store.Store
	if dataDir != "" {
		runStore, err = openStore(ctx, storeKind, dataDir)
		if err != nil {
			return err
		}
		defer runStore.Close()
	}

	var observers []genetic.Observer
	if progress > 0 {
		observers = append(observers, progressPrinter(out, progress))
	}
	if traceRun {
		trace, err := store.NewTraceWriter(dataDir, runID, false)
		if err != nil {
			return fmt.Errorf("failed to create trace: %w", err)
		}
		defer trace.Close()
		observers = append(observers, trace.Observer())
	}

	result, err := p.Solve(ctx, settings, chain(observers...))
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && (!interrupted || result == nil) {
		return fmt.Errorf("failed to solve %s: %w", p.Name(), err)
	}

	fmt.Fprintf(out, "%s: best %q fitness %g after %d generations (solved: %v, %s)\n",
		result.Problem, result.Best, result.Fitness, result.Generations, result.Solved, result.Elapsed.Round(time.Millisecond))

	if interrupted {
		return fmt.Errorf("run interrupted")
	}

	if runStore != nil {
		if err := runStore.SaveRun(store.NewRunRecord(runID, settings, result)); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		slog.Info("Run saved", "run_id", runID, "store", storeKind, "data_dir", dataDir)
		fmt.Fprintf(out, "run %s\n", runID)
	}
	return nil
}
