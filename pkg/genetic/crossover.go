package genetic

import (
	"fmt"
	"math/rand"
	"slices"
)

// Crossover combines two parents into a child. Neither parent is modified.
type Crossover[T any] func(rng *rand.Rand, a, b *Individual[T], cfg CrossoverConfig) (*Individual[T], error)

// CrossoverConfig holds the parameters of the built-in crossover strategies.
type CrossoverConfig struct {
	// CutPoints fixes the cut indices. When empty they are drawn at random.
	CutPoints []int
	// Points is the number of cuts drawn by KPointCrossover.
	Points int
}

// DefaultCrossoverConfig returns random cuts and two points for k-point crossover.
func DefaultCrossoverConfig() CrossoverConfig {
	return CrossoverConfig{Points: 2}
}

// SinglePointCrossover returns a child made of a's genes before the cut and b's
// genes from the cut onward. The cut is drawn uniformly from [0, len) unless
// cfg.CutPoints[0] is set, which may be anywhere in [0, len].
func SinglePointCrossover[T any](rng *rand.Rand, a, b *Individual[T], cfg CrossoverConfig) (*Individual[T], error) {
	if a.Len() != b.Len() {
		return nil, &CrossoverError{LenA: a.Len(), LenB: b.Len()}
	}
	if a.Len() == 0 {
		return nil, ErrNoGenes
	}

	cut := 0
	if len(cfg.CutPoints) > 0 {
		cut = cfg.CutPoints[0]
		if cut < 0 || cut > a.Len() {
			return nil, &ConfigError{Field: "cut point", Reason: fmt.Sprintf("must be within [0, %d], got %d", a.Len(), cut)}
		}
	} else {
		cut = rng.Intn(a.Len())
	}

	genes := make([]T, 0, a.Len())
	genes = append(genes, a.genes[:cut]...)
	genes = append(genes, b.genes[cut:]...)
	return a.Derive(genes), nil
}

// KPointCrossover alternates between the parents at every cut point, starting with a.
func KPointCrossover[T any](rng *rand.Rand, a, b *Individual[T], cfg CrossoverConfig) (*Individual[T], error) {
	if a.Len() != b.Len() {
		return nil, &CrossoverError{LenA: a.Len(), LenB: b.Len()}
	}
	n := a.Len()
	if n == 0 {
		return nil, ErrNoGenes
	}

	cuts := slices.Clone(cfg.CutPoints)
	if len(cuts) == 0 {
		if err := checkPositive("points", cfg.Points); err != nil {
			return nil, err
		}
		for i := 0; i < cfg.Points; i++ {
			cuts = append(cuts, rng.Intn(n))
		}
	}
	for _, c := range cuts {
		if c < 0 || c > n {
			return nil, &ConfigError{Field: "cut point", Reason: fmt.Sprintf("must be within [0, %d], got %d", n, c)}
		}
	}
	slices.Sort(cuts)

	genes := make([]T, n)
	from, other := a.genes, b.genes
	start := 0
	for _, c := range cuts {
		copy(genes[start:c], from[start:c])
		from, other = other, from
		start = c
	}
	copy(genes[start:], from[start:])
	return a.Derive(genes), nil
}
