package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/genyal/internal/opt"
	"github.com/cwbudde/genyal/internal/problem"
)

var (
	benchDim     int
	benchIters   int
	benchPop     int
	benchSeed    int64
	benchRepeats int
	benchWorkers int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare the genetic engine with the mayfly optimizer",
	Long: `Minimizes the sphere function with the genetic engine and with the mayfly
optimizer under the same iteration and population budget, and reports cost and
run time per optimizer.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchDim, "dim", 5, "Number of dimensions")
	benchCmd.Flags().IntVar(&benchIters, "iters", 200, "Generations / iterations per run")
	benchCmd.Flags().IntVar(&benchPop, "pop", 40, "Population size")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "Seed of the first repeat")
	benchCmd.Flags().IntVar(&benchRepeats, "repeats", 3, "Runs per optimizer, seeded seed, seed+1, ...")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 1, "Parallel fitness evaluations for the genetic engine")
	rootCmd.AddCommand(benchCmd)
}

// benchResult aggregates the repeats of one optimizer.
type benchResult struct {
	name    string
	best    float64
	mean    float64
	elapsed time.Duration
}

// benchmark runs every optimizer built by newOptimizers for repeats seeds on
// the sphere function.
func benchmark(dim, repeats int, seed int64, newOptimizers func(seed int64) []opt.Optimizer) []benchResult {
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := range lower {
		lower[i] = -problem.SphereBound
		upper[i] = problem.SphereBound
	}

	var results []benchResult
	for r := 0; r < repeats; r++ {
		for i, o := range newOptimizers(seed + int64(r)) {
			if r == 0 {
				results = append(results, benchResult{name: o.Name(), best: -1})
			}
			start := time.Now()
			_, cost := o.Run(problem.SphereCost, lower, upper, dim)
			res := &results[i]
			res.elapsed += time.Since(start)
			res.mean += cost / float64(repeats)
			if res.best < 0 || cost < res.best {
				res.best = cost
			}
		}
	}
	return results
}

func printBench(out io.Writer, results []benchResult, repeats int) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTIMIZER\tBEST COST\tMEAN COST\tTIME/RUN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%s\n", r.name, r.best, r.mean, (r.elapsed / time.Duration(repeats)).Round(time.Microsecond))
	}
	return w.Flush()
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchDim <= 0 || benchIters <= 0 || benchPop <= 0 || benchRepeats <= 0 {
		return fmt.Errorf("dim, iters, pop and repeats must be positive")
	}

	results := benchmark(benchDim, benchRepeats, benchSeed, func(seed int64) []opt.Optimizer {
		return []opt.Optimizer{
			opt.NewGenetic(benchIters, benchPop, seed).WithWorkers(benchWorkers),
			opt.NewMayfly(benchIters, benchPop, seed),
		}
	})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sphere, %d dimensions, %d iterations, population %d, %d repeat(s)\n\n",
		benchDim, benchIters, benchPop, benchRepeats)
	return printBench(out, results, benchRepeats)
}
