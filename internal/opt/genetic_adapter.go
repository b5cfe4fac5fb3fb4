package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/genyal/pkg/genetic"
)

// GeneticAdapter runs the genetic engine on real-valued genomes with Gaussian
// mutation, minimizing the objective.
type GeneticAdapter struct {
	generations int
	popSize     int
	seed        int64
	workers     int

	// Sigma is the mutation step, as a fraction of the widest bound range.
	Sigma float64
	// Retention is the per-gene probability of surviving mutation unchanged.
	Retention float64
	// EliteFraction is the share of the population carried over each generation.
	EliteFraction float64
}

// NewGenetic creates a genetic optimizer adapter.
func NewGenetic(generations, popSize int, seed int64) *GeneticAdapter {
	return &GeneticAdapter{
		generations:   generations,
		popSize:       popSize,
		seed:          seed,
		workers:       1,
		Sigma:         0.05,
		Retention:     0.5,
		EliteFraction: 0.1,
	}
}

// WithWorkers sets the number of goroutines evaluating fitness.
func (g *GeneticAdapter) WithWorkers(n int) *GeneticAdapter {
	g.workers = n
	return g
}

func (g *GeneticAdapter) Name() string { return "genetic" }

// Run evolves dim-dimensional genomes within [lower[i], upper[i]].
func (g *GeneticAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	width := 0.0
	for i := 0; i < dim; i++ {
		width = max(width, upper[i]-lower[i])
	}

	cfg := genetic.DefaultConfig()
	cfg.Minimize = true
	cfg.Seed = g.seed
	cfg.Workers = g.workers
	cfg.EliteFraction = g.EliteFraction
	cfg.MaxGenerations = g.generations
	cfg.Selection.Matches = 3
	cfg.Mutation = genetic.MutationConfig{Sigma: g.Sigma * width}

	engine, err := genetic.New(genetic.Operators[float64]{
		Fitness:   eval,
		Crossover: genetic.KPointCrossover[float64],
		Mutation:  boundedGaussian(lower, upper),
	}, cfg)
	if err != nil {
		slog.Warn("Genetic optimization failed, falling back to zero vector", "error", err)
		return fallback(eval, dim)
	}

	// Genes are drawn position by position; track the position across draws so
	// each coordinate stays within its own bounds.
	pos := 0
	factory := genetic.NewGeneFactory(func(rng *rand.Rand) float64 {
		i := pos % dim
		pos++
		return lower[i] + rng.Float64()*(upper[i]-lower[i])
	})

	if err := engine.CreatePopulation(g.popSize, dim, factory, g.Retention); err != nil {
		slog.Warn("Genetic optimization failed, falling back to zero vector", "error", err)
		return fallback(eval, dim)
	}
	if err := engine.Evolve(); err != nil {
		slog.Warn("Genetic optimization failed, falling back to zero vector", "error", err)
		return fallback(eval, dim)
	}

	best := engine.Fittest()
	cost, _ := best.Fitness()
	return best.Genes(), cost
}

// boundedGaussian is GaussianMutation clamped per dimension.
func boundedGaussian(lower, upper []float64) genetic.Mutation[float64] {
	return func(rng *rand.Rand, individual *genetic.Individual[float64], cfg genetic.MutationConfig) (*genetic.Individual[float64], error) {
		mutated, err := genetic.GaussianMutation(rng, individual, cfg)
		if err != nil {
			return nil, err
		}
		genes := mutated.Genes()
		for i := range genes {
			genes[i] = min(max(genes[i], lower[i]), upper[i])
		}
		return mutated.Derive(genes), nil
	}
}

func fallback(eval func([]float64) float64, dim int) ([]float64, float64) {
	zero := make([]float64, dim)
	return zero, eval(zero)
}
