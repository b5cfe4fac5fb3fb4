package genetic

import "math/rand"

// Generator produces a single gene. Fixed arguments the generator needs are
// captured by the closure.
type Generator[T any] func(rng *rand.Rand) T

// GeneFactory makes genes on demand. A factory may be shared by many
// individuals but must not be reconfigured while an engine is using it.
type GeneFactory[T any] struct {
	generator Generator[T]
}

// NewGeneFactory creates a factory around gen.
func NewGeneFactory[T any](gen Generator[T]) *GeneFactory[T] {
	return &GeneFactory[T]{generator: gen}
}

// Make creates a new gene. A factory without a generator returns the zero value of T.
func (f *GeneFactory[T]) Make(rng *rand.Rand) T {
	if f.generator == nil {
		var zero T
		return zero
	}
	return f.generator(rng)
}

func (f *GeneFactory[T]) Generator() Generator[T] {
	return f.generator
}

func (f *GeneFactory[T]) SetGenerator(gen Generator[T]) {
	f.generator = gen
}

// Choice returns a generator picking uniformly from alphabet.
func Choice[T any](alphabet []T) Generator[T] {
	values := append([]T(nil), alphabet...)
	return func(rng *rand.Rand) T {
		return values[rng.Intn(len(values))]
	}
}

// UniformFloat returns a generator drawing uniformly from [lo, hi).
func UniformFloat(lo, hi float64) Generator[float64] {
	return func(rng *rand.Rand) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
}
