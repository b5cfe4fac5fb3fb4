// Package problem defines ready-made optimization problems solved with the genetic engine.
package problem

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cwbudde/genyal/pkg/genetic"
)

// Problem is a named optimization task that knows how to build and run its engine.
type Problem interface {
	Name() string
	Description() string
	// Defaults returns the settings the problem runs with when none are given.
	Defaults() Settings
	// Solve evolves a population until the settings' termination conditions or ctx stop it.
	// settings are used as given; start from Defaults or use Resolve.
	// observe, if non-nil, receives the statistics of every generation.
	// A cancelled run returns its partial result together with ctx.Err().
	Solve(ctx context.Context, settings Settings, observe genetic.Observer) (*Result, error)
}

// Result summarizes a finished run.
type Result struct {
	Problem     string                    `json:"problem"`
	Best        string                    `json:"best"`
	Fitness     float64                   `json:"fitness"`
	Generations int                       `json:"generations"`
	Solved      bool                      `json:"solved"`
	Elapsed     time.Duration             `json:"elapsed"`
	History     []genetic.GenerationStats `json:"history,omitempty"`
}

var registry = map[string]func() Problem{}

// Register adds a problem constructor to the registry.
func Register(name string, constructor func() Problem) {
	registry[name] = constructor
}

// Get returns a problem by name.
func Get(name string) (Problem, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, &UnknownError{Name: name}
	}
	return ctor(), nil
}

// Names returns all registered problem names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// ErrUnknown is returned by Get for unregistered names.
// Use errors.Is(err, ErrUnknown) to check for this error.
var ErrUnknown = &UnknownError{}

// UnknownError represents a lookup of an unregistered problem.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	if e.Name != "" {
		return "unknown problem: " + e.Name
	}
	return "unknown problem"
}

func (e *UnknownError) Is(target error) bool {
	_, ok := target.(*UnknownError)
	return ok
}

// run is the shared evolution loop behind every problem. target is the fitness
// that marks the problem solved.
type run[T any] struct {
	name     string
	settings Settings
	ops      genetic.Operators[T]
	config   genetic.Config
	factory  *genetic.GeneFactory[T]
	target   float64
}

func (r run[T]) solve(ctx context.Context, observe genetic.Observer) (*Result, error) {
	s := r.settings
	cfg := r.config
	cfg.EliteFraction = s.EliteFraction
	cfg.Workers = s.Workers
	cfg.Seed = s.Seed
	cfg.MaxGenerations = s.MaxGenerations
	cfg.Selection.Matches = s.Matches

	stops := []genetic.Termination[T]{
		genetic.ContextDone[T](ctx),
		genetic.MaxGenerations[T](s.MaxGenerations),
		genetic.TargetFitness[T](r.target),
	}
	if s.StaleWindow > 0 {
		stops = append(stops, genetic.StaleFor[T](s.StaleWindow))
	}
	ops := r.ops
	ops.Termination = genetic.Any(stops...)

	engine, err := genetic.New(ops, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if observe != nil {
		engine.Observe(observe)
	}

	slog.Info("Solving problem",
		"problem", r.name,
		"population", s.Population,
		"genome_length", s.GenomeLength,
		"mutation_rate", s.MutationRate,
		"max_generations", s.MaxGenerations,
		"seed", s.Seed,
	)

	start := time.Now()
	if err := engine.CreatePopulation(s.Population, s.GenomeLength, r.factory, s.MutationRate); err != nil {
		return nil, fmt.Errorf("failed to create population: %w", err)
	}
	if err := engine.Evolve(); err != nil {
		return nil, err
	}

	fittest := engine.Fittest()
	fitness, _ := fittest.Fitness()
	result := &Result{
		Problem:     r.name,
		Best:        fittest.String(),
		Fitness:     fitness,
		Generations: engine.Generation(),
		Solved:      genetic.TargetFitness[T](r.target)(engine),
		Elapsed:     time.Since(start),
		History:     engine.History(),
	}

	slog.Info("Problem finished",
		"problem", r.name,
		"best", result.Best,
		"fitness", result.Fitness,
		"generations", result.Generations,
		"solved", result.Solved,
		"elapsed", result.Elapsed,
	)
	return result, ctx.Err()
}
