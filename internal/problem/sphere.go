package problem

import (
	"context"
	"strconv"

	"github.com/cwbudde/genyal/pkg/genetic"
)

// SphereBound is the search range [-SphereBound, SphereBound] of every coordinate.
const SphereBound = 5.12

func init() {
	Register("sphere", func() Problem { return Sphere{} })
}

// Sphere minimizes f(x) = sum(x_i^2) over real-valued genomes with Gaussian
// mutation. The target is the cost tolerance that counts as solved.
type Sphere struct{}

func (Sphere) Name() string { return "sphere" }

func (Sphere) Description() string {
	return "Minimize the sphere function sum(x^2) with Gaussian mutation"
}

func (Sphere) Defaults() Settings {
	return Settings{
		Population:     50,
		GenomeLength:   5,
		MutationRate:   0.5,
		Matches:        3,
		EliteFraction:  0.1,
		MaxGenerations: 500,
		Seed:           42,
		Target:         "1e-4",
	}
}

func (s Sphere) Solve(ctx context.Context, settings Settings, observe genetic.Observer) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	tolerance, err := strconv.ParseFloat(settings.Target, 64)
	if err != nil || tolerance < 0 {
		return nil, &ValidationError{Field: "target", Reason: "must be a non-negative tolerance"}
	}

	cfg := genetic.DefaultConfig()
	cfg.Minimize = true
	cfg.Mutation = genetic.MutationConfig{Sigma: 0.2, Low: -SphereBound, High: SphereBound}

	return run[float64]{
		name:     s.Name(),
		settings: settings,
		ops: genetic.Operators[float64]{
			Fitness:   SphereCost,
			Crossover: genetic.KPointCrossover[float64],
			Mutation:  genetic.GaussianMutation,
		},
		config:  cfg,
		factory: genetic.NewGeneFactory(genetic.UniformFloat(-SphereBound, SphereBound)),
		target:  tolerance,
	}.solve(ctx, observe)
}

// SphereCost is sum(x_i^2), minimal at the origin.
func SphereCost(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}
