package genetic

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Population is an ordered set of individuals. After sorting, the last element is the best.
type Population[T any] []*Individual[T]

// Sort orders the population ascending by fitness, or descending when minimize is
// set, so that the best individual always ends up last. The sort is stable.
func (p Population[T]) Sort(minimize bool) {
	slices.SortStableFunc(p, func(a, b *Individual[T]) int {
		if minimize {
			return b.Compare(a)
		}
		return a.Compare(b)
	})
}

// IsSorted reports whether the population satisfies the ordering Sort produces.
func (p Population[T]) IsSorted(minimize bool) bool {
	return slices.IsSortedFunc(p, func(a, b *Individual[T]) int {
		if minimize {
			return b.Compare(a)
		}
		return a.Compare(b)
	})
}

// Fittest returns the last individual, or nil for an empty population.
func (p Population[T]) Fittest() *Individual[T] {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Fitnesses returns the memoized fitness of every member in order.
func (p Population[T]) Fitnesses() []float64 {
	values := make([]float64, len(p))
	for i, individual := range p {
		values[i] = individual.fitness
	}
	return values
}

// GenerationStats summarizes one generation of a sorted population.
type GenerationStats struct {
	Generation int           `json:"generation"`
	Best       float64       `json:"bestFitness"`
	Worst      float64       `json:"worstFitness"`
	Mean       float64       `json:"avgFitness"`
	StdDev     float64       `json:"stdDevFitness"`
	Fittest    string        `json:"fittest"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Stats computes the statistics of a sorted, evaluated population.
func (p Population[T]) Stats(generation int, elapsed time.Duration) GenerationStats {
	if len(p) == 0 {
		return GenerationStats{Generation: generation, Elapsed: elapsed}
	}
	fitnesses := p.Fitnesses()
	mean, std := stat.MeanStdDev(fitnesses, nil)
	if len(fitnesses) < 2 {
		std = 0
	}
	return GenerationStats{
		Generation: generation,
		Best:       fitnesses[len(fitnesses)-1],
		Worst:      fitnesses[0],
		Mean:       mean,
		StdDev:     std,
		Fittest:    p[len(p)-1].String(),
		Elapsed:    elapsed,
	}
}
