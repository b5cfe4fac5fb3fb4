package genetic

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// DefaultMaxGenerations is used when Config.MaxGenerations is zero.
const DefaultMaxGenerations = 100

// Operators groups the pluggable functions of an engine. Nil fields fall back to
// the defaults: a constant zero fitness, tournament selection, single-point
// crossover, simple mutation and a max-generations termination.
type Operators[T any] struct {
	Fitness     FitnessFunc[T]
	Selection   Selection[T]
	Crossover   Crossover[T]
	Mutation    Mutation[T]
	Termination Termination[T]
}

// Observer receives the statistics of every generation, generation 0 included.
type Observer func(GenerationStats)

// Engine creates, maintains and evolves a population.
//
// An Engine is not safe for concurrent use. It owns a single RNG that every
// selection, crossover, mutation and gene draw reads from, so runs with the
// same seed and operators are reproducible.
type Engine[T any] struct {
	cfg         Config
	rng         *rand.Rand
	fitness     FitnessFunc[T]
	selection   Selection[T]
	crossover   Crossover[T]
	mutation    Mutation[T]
	termination Termination[T]

	population Population[T]
	fittest    *Individual[T]
	generation int
	history    []GenerationStats
	observers  []Observer
}

// New creates an engine. Zero-valued operator parameters in cfg take their defaults.
func New[T any](ops Operators[T], cfg Config) (*Engine[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine[T]{
		cfg:         cfg,
		rng:         NewRand(cfg.Seed),
		fitness:     ops.Fitness,
		selection:   ops.Selection,
		crossover:   ops.Crossover,
		mutation:    ops.Mutation,
		termination: ops.Termination,
	}
	if e.fitness == nil {
		e.fitness = func([]T) float64 { return 0 }
	}
	if e.selection == nil {
		e.selection = TournamentSelection[T]
	}
	if e.termination == nil {
		e.termination = MaxGenerations[T](cfg.MaxGenerations)
	}
	return e, nil
}

func (c Config) withDefaults() Config {
	if c.MaxGenerations == 0 {
		c.MaxGenerations = DefaultMaxGenerations
	}
	if c.Selection.Matches == 0 {
		c.Selection.Matches = DefaultSelectionConfig().Matches
	}
	if c.Selection.Pressure == 0 {
		c.Selection.Pressure = DefaultSelectionConfig().Pressure
	}
	if c.Crossover.Points == 0 {
		c.Crossover.Points = DefaultCrossoverConfig().Points
	}
	if c.Mutation.Sigma == 0 {
		c.Mutation.Sigma = DefaultMutationConfig().Sigma
	}
	return c
}

// CreatePopulation builds size individuals of genomeLength genes, evaluates and
// sorts them, and resets the generation counter. On error the engine is left unchanged.
func (e *Engine[T]) CreatePopulation(size, genomeLength int, factory *GeneFactory[T], mutationRate float64) error {
	start := time.Now()

	population, err := Create(size, genomeLength, factory, mutationRate, e.rng)
	if err != nil {
		return err
	}
	for _, individual := range population {
		if e.crossover != nil {
			individual.SetCrossoverStrategy(e.crossover)
		}
		if e.mutation != nil {
			individual.SetMutationStrategy(e.mutation)
		}
	}
	if err := e.evaluate(population); err != nil {
		return err
	}
	population.Sort(e.cfg.Minimize)

	e.population = population
	e.fittest = population.Fittest()
	e.generation = 0
	e.history = e.history[:0]
	e.record(time.Since(start))

	slog.Debug("Population created",
		"size", size,
		"genome_length", genomeLength,
		"mutation_rate", mutationRate,
		"best_fitness", e.fittest.fitness,
	)
	return nil
}

// Evolve advances generations until the termination predicate holds.
func (e *Engine[T]) Evolve() error {
	if len(e.population) == 0 {
		return ErrEmptyPopulation
	}

	first := e.generation
	for !e.termination(e) {
		if err := e.Step(); err != nil {
			return fmt.Errorf("failed to evolve generation %d: %w", e.generation+1, err)
		}
	}

	slog.Debug("Evolution terminated",
		"generations", e.generation-first,
		"generation", e.generation,
		"best_fitness", e.fittest.fitness,
		"fittest", e.fittest.String(),
	)
	return nil
}

// Step builds the next generation and swaps it in.
func (e *Engine[T]) Step() error {
	n := len(e.population)
	if n == 0 {
		return ErrEmptyPopulation
	}
	start := time.Now()

	elite := int(e.cfg.EliteFraction * float64(n))
	next := make(Population[T], 0, n)
	for _, individual := range e.population[n-elite:] {
		next = append(next, individual.Clone())
	}

	children := make(Population[T], 0, n-elite)
	for len(children) < n-elite {
		child, err := e.offspring()
		if err != nil {
			return err
		}
		children = append(children, child)
	}
	if err := e.evaluate(children); err != nil {
		return err
	}
	next = append(next, children...)
	next.Sort(e.cfg.Minimize)

	e.population = next
	e.fittest = next.Fittest()
	e.generation++
	e.record(time.Since(start))
	return nil
}

// offspring selects two parents and breeds one unevaluated child.
func (e *Engine[T]) offspring() (*Individual[T], error) {
	a, err := e.selection(e.rng, e.population, e.cfg.Selection)
	if err != nil {
		return nil, fmt.Errorf("failed to select parent: %w", err)
	}
	b, err := e.selection(e.rng, e.population, e.cfg.Selection)
	if err != nil {
		return nil, fmt.Errorf("failed to select parent: %w", err)
	}

	a.SetRand(e.rng)
	child, err := a.Crossover(b, e.cfg.Crossover)
	if err != nil {
		return nil, err
	}
	return child.Mutate(e.cfg.Mutation)
}

// evaluate computes the fitness of every member. All RNG draws happen before
// this point, so fanning out over workers does not change reproducibility.
func (e *Engine[T]) evaluate(population Population[T]) error {
	if e.cfg.Workers <= 1 {
		for _, individual := range population {
			if err := individual.ComputeFitnessUsing(e.fitness); err != nil {
				return err
			}
		}
		return nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(e.cfg.Workers)
	for _, individual := range population {
		p.Go(func() error {
			return individual.ComputeFitnessUsing(e.fitness)
		})
	}
	return p.Wait()
}

func (e *Engine[T]) record(elapsed time.Duration) {
	stats := e.population.Stats(e.generation, elapsed)
	e.history = append(e.history, stats)

	slog.Debug("Generation complete",
		"generation", stats.Generation,
		"best_fitness", stats.Best,
		"avg_fitness", stats.Mean,
		"worst_fitness", stats.Worst,
		"elapsed", elapsed,
	)
	for _, observe := range e.observers {
		observe(stats)
	}
}

// Observe registers fn to be called after every generation.
func (e *Engine[T]) Observe(fn Observer) {
	e.observers = append(e.observers, fn)
}

// Population returns a copy of the current population slice.
func (e *Engine[T]) Population() Population[T] {
	return append(Population[T](nil), e.population...)
}

func (e *Engine[T]) Generation() int {
	return e.generation
}

// Fittest returns the best individual of the current generation, or nil before
// CreatePopulation.
func (e *Engine[T]) Fittest() *Individual[T] {
	return e.fittest
}

// History returns the statistics of every generation since CreatePopulation.
func (e *Engine[T]) History() []GenerationStats {
	return append([]GenerationStats(nil), e.history...)
}

func (e *Engine[T]) Rand() *rand.Rand {
	return e.rng
}

func (e *Engine[T]) Config() Config {
	return e.cfg
}
