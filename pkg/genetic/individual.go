package genetic

import (
	"cmp"
	"fmt"
	"math/rand"
	"strings"
)

// DefaultMutationRate is the gene retention probability used when none is given.
const DefaultMutationRate = 0.01

// FitnessFunc scores a genome. Higher is better unless the engine minimizes.
type FitnessFunc[T any] func(genes []T) float64

// Individual is one candidate solution: an ordered genome plus its memoized fitness
// and the operators used to breed from it.
//
// Crossover and mutation never modify an Individual; they build new ones.
type Individual[T any] struct {
	genes        []T
	fitness      float64
	evaluated    bool
	mutationRate float64
	crossover    Crossover[T]
	mutation     Mutation[T]
	factory      *GeneFactory[T]
	rng          *rand.Rand
}

// NewIndividual creates an individual holding a copy of genes, with the default
// mutation rate and the default crossover and mutation strategies.
func NewIndividual[T any](genes []T) *Individual[T] {
	return &Individual[T]{
		genes:        append([]T(nil), genes...),
		mutationRate: DefaultMutationRate,
		crossover:    SinglePointCrossover[T],
		mutation:     SimpleMutation[T],
	}
}

// Create builds n individuals of nGenes genes each, drawing every gene from factory.
func Create[T any](n, nGenes int, factory *GeneFactory[T], mutationRate float64, rng *rand.Rand) (Population[T], error) {
	if err := checkPositive("individuals", n); err != nil {
		return nil, err
	}
	if err := checkPositive("genes", nGenes); err != nil {
		return nil, err
	}
	if err := checkProbability("mutation rate", mutationRate); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, &ConfigError{Field: "gene factory", Reason: "cannot be nil"}
	}

	population := make(Population[T], 0, n)
	for i := 0; i < n; i++ {
		individual := NewIndividual[T](nil)
		individual.mutationRate = mutationRate
		individual.rng = rng
		if err := individual.Set(nGenes, factory); err != nil {
			return nil, err
		}
		population = append(population, individual)
	}
	return population, nil
}

// Set appends n freshly generated genes and binds factory to the individual.
func (i *Individual[T]) Set(n int, factory *GeneFactory[T]) error {
	if err := checkPositive("genes", n); err != nil {
		return err
	}
	if factory == nil {
		return &ConfigError{Field: "gene factory", Reason: "cannot be nil"}
	}
	rng := i.source()
	for k := 0; k < n; k++ {
		i.genes = append(i.genes, factory.Make(rng))
	}
	i.factory = factory
	return nil
}

// ComputeFitnessUsing evaluates the individual once. Later calls keep the first value.
func (i *Individual[T]) ComputeFitnessUsing(fn FitnessFunc[T]) error {
	if len(i.genes) == 0 {
		return ErrNoGenes
	}
	if i.evaluated {
		return nil
	}
	i.fitness = fn(i.Genes())
	i.evaluated = true
	return nil
}

// Crossover breeds a child with partner using the bound crossover strategy.
func (i *Individual[T]) Crossover(partner *Individual[T], cfg CrossoverConfig) (*Individual[T], error) {
	strategy := i.crossover
	if strategy == nil {
		strategy = SinglePointCrossover[T]
	}
	return strategy(i.source(), i, partner, cfg)
}

// Mutate returns a mutated copy using the bound mutation strategy.
func (i *Individual[T]) Mutate(cfg MutationConfig) (*Individual[T], error) {
	strategy := i.mutation
	if strategy == nil {
		strategy = SimpleMutation[T]
	}
	return strategy(i.source(), i, cfg)
}

// source returns the bound RNG, or a randomly seeded one that is not kept.
func (i *Individual[T]) source() *rand.Rand {
	if i.rng == nil {
		return NewRand(0)
	}
	return i.rng
}

// Clone returns a copy sharing configuration and memoized fitness.
func (i *Individual[T]) Clone() *Individual[T] {
	c := *i
	c.genes = append([]T(nil), i.genes...)
	return &c
}

// Derive returns an unevaluated individual with i's configuration and the given
// genes. The new individual takes ownership of genes. Custom operators use it to
// build their results.
func (i *Individual[T]) Derive(genes []T) *Individual[T] {
	return &Individual[T]{
		genes:        genes,
		mutationRate: i.mutationRate,
		crossover:    i.crossover,
		mutation:     i.mutation,
		factory:      i.factory,
		rng:          i.rng,
	}
}

// Genes returns a copy of the genome.
func (i *Individual[T]) Genes() []T {
	return append([]T(nil), i.genes...)
}

func (i *Individual[T]) Len() int {
	return len(i.genes)
}

// Fitness returns the memoized fitness and whether it has been computed.
func (i *Individual[T]) Fitness() (float64, bool) {
	return i.fitness, i.evaluated
}

func (i *Individual[T]) Evaluated() bool {
	return i.evaluated
}

func (i *Individual[T]) MutationRate() float64 {
	return i.mutationRate
}

func (i *Individual[T]) SetMutationRate(rate float64) error {
	if err := checkProbability("mutation rate", rate); err != nil {
		return err
	}
	i.mutationRate = rate
	return nil
}

func (i *Individual[T]) GeneFactory() *GeneFactory[T] {
	return i.factory
}

func (i *Individual[T]) SetGeneFactory(factory *GeneFactory[T]) {
	i.factory = factory
}

func (i *Individual[T]) CrossoverStrategy() Crossover[T] {
	return i.crossover
}

func (i *Individual[T]) SetCrossoverStrategy(strategy Crossover[T]) {
	i.crossover = strategy
}

func (i *Individual[T]) MutationStrategy() Mutation[T] {
	return i.mutation
}

func (i *Individual[T]) SetMutationStrategy(strategy Mutation[T]) {
	i.mutation = strategy
}

func (i *Individual[T]) Rand() *rand.Rand {
	return i.rng
}

func (i *Individual[T]) SetRand(rng *rand.Rand) {
	i.rng = rng
}

// Compare orders individuals by fitness, ascending.
func (i *Individual[T]) Compare(other *Individual[T]) int {
	return cmp.Compare(i.fitness, other.fitness)
}

// Equal reports whether both individuals have the same fitness.
func (i *Individual[T]) Equal(other *Individual[T]) bool {
	return other != nil && i.evaluated == other.evaluated && i.fitness == other.fitness
}

func (i *Individual[T]) String() string {
	if s, ok := any(i.genes).([]rune); ok {
		return string(s)
	}
	if s, ok := any(i.genes).([]byte); ok {
		return string(s)
	}
	if s, ok := any(i.genes).([]string); ok {
		return strings.Join(s, "")
	}
	return fmt.Sprint(i.genes)
}
