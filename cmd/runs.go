package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genyal/internal/store"
)

var (
	runsDataDir   string
	runsStoreKind string
	keepLast      int
	olderThanDays int
	forceClean    bool
	showHistory   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded runs",
	Long: `Manage the runs recorded with "genyal run --data" or by the server,
including listing, inspecting and cleaning old runs.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recorded runs",
	Long:  `Display all runs with their problem, timestamp, generations, fitness and size on disk.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
You can specify how many runs to keep or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data", "./data", "Data directory of the run store")
	runsCmd.PersistentFlags().StringVar(&runsStoreKind, "store", "fs", "Run store: fs or sqlite")

	showRunCmd.Flags().BoolVar(&showHistory, "history", false, "Print the per-generation trace")

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := openStore(cmd.Context(), runsStoreKind, runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tPROBLEM\tTIMESTAMP\tGENERATIONS\tFITNESS\tSOLVED\tSIZE")
	fmt.Fprintln(w, "------\t-------\t---------\t-----------\t-------\t------\t----")

	for _, info := range infos {
		dirSize := "-"
		if size, err := getDirSize(filepath.Join(runsDataDir, "runs", info.ID)); err == nil && size > 0 {
			dirSize = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%v\t%s\n",
			shortRunID(info.ID),
			info.Problem,
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Generations,
			info.Fitness,
			info.Solved,
			dirSize,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := openStore(cmd.Context(), runsStoreKind, runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	run, err := runStore.LoadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run: %s\n", run.ID)
	fmt.Fprintf(out, "Problem: %s\n", run.Problem)
	fmt.Fprintf(out, "Timestamp: %s\n", run.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "Best: %q\n", run.Best)
	fmt.Fprintf(out, "Fitness: %g\n", run.Fitness)
	fmt.Fprintf(out, "Generations: %d\n", run.Generations)
	fmt.Fprintf(out, "Solved: %v\n", run.Solved)
	fmt.Fprintf(out, "Elapsed: %s\n", run.Elapsed.Round(time.Millisecond))

	s := run.Settings
	fmt.Fprintln(out, "\nSettings:")
	fmt.Fprintf(out, "  population=%d genome_length=%d mutation_rate=%g matches=%d elite_fraction=%g\n",
		s.Population, s.GenomeLength, s.MutationRate, s.Matches, s.EliteFraction)
	fmt.Fprintf(out, "  max_generations=%d stale_window=%d workers=%d seed=%d target=%q\n",
		s.MaxGenerations, s.StaleWindow, s.Workers, s.Seed, s.Target)

	if showHistory {
		return printTrace(out, runsDataDir, run.ID)
	}
	return nil
}

// printTrace writes the run's trace as a table.
func printTrace(out io.Writer, baseDir, runID string) error {
	reader, err := store.NewTraceReader(baseDir, runID)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(out, "\nNo trace recorded.")
		return nil
	}
	if err != nil {
		return err
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GENERATION\tBEST\tMEAN\tSTDDEV\tWORST\tFITTEST")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%g\t%.4g\t%.4g\t%g\t%s\n", e.Generation, e.Best, e.Mean, e.StdDev, e.Worst, e.Fittest)
	}
	return w.Flush()
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := openStore(cmd.Context(), runsStoreKind, runsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No runs match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s, %s)\n",
			shortRunID(info.ID),
			info.Problem,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		err := runStore.DeleteRun(info.ID)
		if err == nil {
			// SQLite keeps records apart from the trace
			err = store.DeleteTrace(runsDataDir, info.ID)
		}
		if err != nil {
			slog.Error("Failed to delete run", "run_id", info.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "run_id", info.ID)
			deleted++
		}
	}

	fmt.Fprintf(out, "\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the retention policy: runs older than
// olderThanDays, plus everything but the keepLast newest runs.
func selectRunsForDeletion(infos []store.RunInfo, keepLast, olderThanDays int, now time.Time) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.ID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := slices.Clone(infos)
		slices.SortStableFunc(sorted, func(a, b store.RunInfo) int {
			return b.Timestamp.Compare(a.Timestamp)
		})
		for _, info := range sorted[keepLast:] {
			if !selected[info.ID] {
				toDelete = append(toDelete, info)
				selected[info.ID] = true
			}
		}
	}

	return toDelete
}

func shortRunID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
