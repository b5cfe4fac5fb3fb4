package genetic

import (
	"math/rand"
)

// Mutation returns a perturbed copy of an individual.
type Mutation[T any] func(rng *rand.Rand, individual *Individual[T], cfg MutationConfig) (*Individual[T], error)

// MutationConfig holds the parameters of GaussianMutation.
type MutationConfig struct {
	// Sigma is the standard deviation of the added noise.
	Sigma float64
	// Low and High clamp mutated values when Low < High.
	Low  float64
	High float64
}

func DefaultMutationConfig() MutationConfig {
	return MutationConfig{Sigma: 0.1}
}

// SimpleMutation keeps each gene with probability equal to the individual's
// mutation rate and replaces it with a fresh gene from its factory otherwise.
// A rate of 1 reproduces the genome; a rate of 0 regenerates every position.
func SimpleMutation[T any](rng *rand.Rand, individual *Individual[T], _ MutationConfig) (*Individual[T], error) {
	if individual.factory == nil {
		return nil, ErrNoFactory
	}

	genes := make([]T, len(individual.genes))
	for i, gene := range individual.genes {
		if rng.Float64() < individual.mutationRate {
			genes[i] = gene
		} else {
			genes[i] = individual.factory.Make(rng)
		}
	}
	return individual.Derive(genes), nil
}

// GaussianMutation adds N(0, cfg.Sigma) noise to each gene it does not retain.
// Retention follows the same polarity as SimpleMutation.
func GaussianMutation(rng *rand.Rand, individual *Individual[float64], cfg MutationConfig) (*Individual[float64], error) {
	if cfg.Sigma <= 0 {
		return nil, &ConfigError{Field: "sigma", Reason: "must be positive"}
	}

	genes := make([]float64, len(individual.genes))
	for i, gene := range individual.genes {
		if rng.Float64() < individual.mutationRate {
			genes[i] = gene
			continue
		}
		v := gene + rng.NormFloat64()*cfg.Sigma
		if cfg.Low < cfg.High {
			v = min(max(v, cfg.Low), cfg.High)
		}
		genes[i] = v
	}
	return individual.Derive(genes), nil
}
