package problem

import (
	"context"
	"math"
	"strconv"

	"github.com/cwbudde/genyal/pkg/genetic"
)

// primeLimit bounds the candidate factors.
const primeLimit = 500

func init() {
	Register("primes", func() Problem { return Primes{} })
}

// Primes evolves a list of factors, drawn from 1 and the primes below 500,
// whose product equals a target. It minimizes the distance between the
// logarithms of the product and the target.
type Primes struct{}

func (Primes) Name() string { return "primes" }

func (Primes) Description() string {
	return "Factorize the target into primes below 500 (minimization)"
}

func (Primes) Defaults() Settings {
	return Settings{
		Population:     500,
		GenomeLength:   10,
		MutationRate:   0.8,
		Matches:        5,
		EliteFraction:  0.05,
		MaxGenerations: 500,
		StaleWindow:    100,
		Seed:           42,
		Target:         "360360",
	}
}

func (p Primes) Solve(ctx context.Context, settings Settings, observe genetic.Observer) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	target, err := strconv.ParseInt(settings.Target, 10, 64)
	if err != nil || target < 1 {
		return nil, &ValidationError{Field: "target", Reason: "must be a positive integer"}
	}

	cfg := genetic.DefaultConfig()
	cfg.Minimize = true

	return run[int]{
		name:     p.Name(),
		settings: settings,
		ops:      genetic.Operators[int]{Fitness: factorDistance(target)},
		config:   cfg,
		factory:  genetic.NewGeneFactory(genetic.Choice(candidateFactors(primeLimit))),
		target:   0,
	}.solve(ctx, observe)
}

// factorDistance is zero exactly when the product of genes equals target.
func factorDistance(target int64) genetic.FitnessFunc[int] {
	logTarget := math.Log(float64(target))
	return func(genes []int) float64 {
		var logProduct float64
		var product int64 = 1
		exact := true
		for _, g := range genes {
			logProduct += math.Log(float64(g))
			if exact {
				if product > math.MaxInt64/int64(g) {
					exact = false
				} else {
					product *= int64(g)
				}
			}
		}
		if exact && product == target {
			return 0
		}
		distance := math.Abs(logProduct - logTarget)
		if distance == 0 {
			// Rounding can hide a mismatch; keep it strictly positive.
			distance = math.SmallestNonzeroFloat64
		}
		return distance
	}
}

// candidateFactors returns 1 followed by the primes below limit, found with
// the sieve of Eratosthenes.
func candidateFactors(limit int) []int {
	composite := make([]bool, limit)
	for p := 2; p*p < limit; p++ {
		if composite[p] {
			continue
		}
		for i := p * p; i < limit; i += p {
			composite[i] = true
		}
	}

	factors := []int{1}
	for n := 2; n < limit; n++ {
		if !composite[n] {
			factors = append(factors, n)
		}
	}
	return factors
}
