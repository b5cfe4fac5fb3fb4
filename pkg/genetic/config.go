package genetic

import (
	"fmt"
	"math/rand"
	"time"
)

// Config holds the engine parameters that do not depend on the gene type.
type Config struct {
	// Minimize inverts the fitness ordering so that lower scores win.
	Minimize bool
	// EliteFraction is the share of the best individuals copied unchanged
	// into the next generation (0 regenerates the whole population).
	EliteFraction float64
	// Workers is the number of goroutines evaluating fitness. Values <= 1
	// evaluate sequentially.
	Workers int
	// Seed initializes the engine RNG. 0 picks a random seed.
	Seed int64
	// MaxGenerations bounds the default termination predicate.
	MaxGenerations int

	Selection SelectionConfig
	Crossover CrossoverConfig
	Mutation  MutationConfig
}

// DefaultConfig returns a maximizing, non-elitist, sequential configuration
// that stops after 100 generations.
func DefaultConfig() Config {
	return Config{
		Minimize:       false,
		EliteFraction:  0,
		Workers:        1,
		Seed:           0,
		MaxGenerations: 100,
		Selection:      DefaultSelectionConfig(),
		Crossover:      DefaultCrossoverConfig(),
		Mutation:       DefaultMutationConfig(),
	}
}

// Validate checks the configuration and returns a *ConfigError on the first problem.
// Zero operator parameters are accepted and stand for their defaults.
func (c Config) Validate() error {
	if c.EliteFraction < 0 || c.EliteFraction >= 1 {
		return &ConfigError{Field: "EliteFraction", Reason: fmt.Sprintf("must be within [0, 1), got %v", c.EliteFraction)}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: "cannot be negative"}
	}
	if c.MaxGenerations < 0 {
		return &ConfigError{Field: "MaxGenerations", Reason: "cannot be negative"}
	}
	if c.Selection.Matches < 0 {
		return &ConfigError{Field: "Selection.Matches", Reason: fmt.Sprintf("cannot be negative, got %d", c.Selection.Matches)}
	}
	if p := c.Selection.Pressure; p != 0 && (p < 1 || p > 2) {
		return &ConfigError{Field: "Selection.Pressure", Reason: fmt.Sprintf("must be within [1, 2], got %v", p)}
	}
	if c.Crossover.Points < 0 {
		return &ConfigError{Field: "Crossover.Points", Reason: fmt.Sprintf("cannot be negative, got %d", c.Crossover.Points)}
	}
	if c.Mutation.Sigma < 0 {
		return &ConfigError{Field: "Mutation.Sigma", Reason: fmt.Sprintf("cannot be negative, got %v", c.Mutation.Sigma)}
	}
	return nil
}

// NewRand returns a math/rand source seeded with seed, or with the clock when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
