package opt

// Optimizer minimizes a continuous objective inside box bounds.
type Optimizer interface {
	// Name identifies the algorithm in benchmark output.
	Name() string

	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
