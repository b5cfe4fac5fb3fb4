package genetic

import (
	"fmt"
	"math/rand"
)

// Selection picks a parent from a sorted population and returns a copy of it.
type Selection[T any] func(rng *rand.Rand, population Population[T], cfg SelectionConfig) (*Individual[T], error)

// SelectionConfig holds the parameters of the built-in selection strategies.
type SelectionConfig struct {
	// Matches is the tournament size.
	Matches int
	// Pressure is the linear ranking selection pressure, within [1, 2].
	Pressure float64
}

// DefaultSelectionConfig returns a 5-match tournament and 1.5 ranking pressure.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		Matches:  5,
		Pressure: 1.5,
	}
}

// TournamentSelection draws cfg.Matches indices with replacement and returns a
// copy of the individual at the highest index drawn. The population must be
// sorted so that higher indices hold better individuals.
func TournamentSelection[T any](rng *rand.Rand, population Population[T], cfg SelectionConfig) (*Individual[T], error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	if err := checkPositive("matches", cfg.Matches); err != nil {
		return nil, err
	}

	best := rng.Intn(len(population))
	for i := 1; i < cfg.Matches; i++ {
		candidate := rng.Intn(len(population))
		if candidate > best {
			best = candidate
		}
	}
	return population[best].Clone(), nil
}

// RankSelection performs linear ranking selection over a sorted population.
// Rank 0 is the worst individual and rank n-1 the best.
func RankSelection[T any](rng *rand.Rand, population Population[T], cfg SelectionConfig) (*Individual[T], error) {
	n := len(population)
	if n == 0 {
		return nil, ErrEmptyPopulation
	}
	s := cfg.Pressure
	if s < 1 || s > 2 {
		return nil, &ConfigError{Field: "pressure", Reason: fmt.Sprintf("must be within [1, 2], got %v", s)}
	}
	if n == 1 {
		return population[0].Clone(), nil
	}

	r := rng.Float64()
	var acc float64
	for rank := 0; rank < n; rank++ {
		acc += rankProbability(n, rank, s)
		if r < acc {
			return population[rank].Clone(), nil
		}
	}
	return population[n-1].Clone(), nil
}

func rankProbability(n, rank int, s float64) float64 {
	fn := float64(n)
	return (2-s)/fn + 2*float64(rank)*(s-1)/(fn*(fn-1))
}
