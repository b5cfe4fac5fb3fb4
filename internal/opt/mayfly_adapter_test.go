package opt

import (
	"math"
	"testing"

	"github.com/cwbudde/genyal/internal/problem"
)

var (
	_ Optimizer = (*MayflyAdapter)(nil)
	_ Optimizer = (*GeneticAdapter)(nil)
)

func bounds(dim int, lo, hi float64) ([]float64, []float64) {
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = lo
		upper[i] = hi
	}
	return lower, upper
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42) // maxIters, popSize, seed

	dim := 3
	lower, upper := bounds(dim, -10, 10)

	best, cost := optimizer.Run(problem.SphereCost, lower, upper, dim)

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}

	// Should converge close to zero
	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}

	for i, v := range best {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	dim := 2
	lower, upper := bounds(dim, -5, 5)

	_, cost1 := NewMayfly(50, 20, 123).Run(problem.SphereCost, lower, upper, dim)
	_, cost2 := NewMayfly(50, 20, 123).Run(problem.SphereCost, lower, upper, dim)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestMayflyPopulationFloor(t *testing.T) {
	if m := NewMayfly(10, 5, 1); m.popSize != MinMayflyPopulation {
		t.Errorf("Expected population raised to %d, got %d", MinMayflyPopulation, m.popSize)
	}
}
