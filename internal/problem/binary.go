package problem

import (
	"context"
	"math"
	"strconv"

	"github.com/cwbudde/genyal/pkg/genetic"
)

func init() {
	Register("binary", func() Problem { return Binary{} })
}

// Binary evolves a big-endian bit string whose value equals a target integer.
// Fitness is the negated distance to the target, so 0 means solved.
type Binary struct{}

func (Binary) Name() string { return "binary" }

func (Binary) Description() string {
	return "Evolve a bit string whose binary value equals the target integer"
}

func (Binary) Defaults() Settings {
	return Settings{
		Population:     20,
		GenomeLength:   10,
		MutationRate:   0.9,
		Matches:        5,
		MaxGenerations: 1000,
		Seed:           42,
		Target:         "321",
	}
}

func (b Binary) Solve(ctx context.Context, settings Settings, observe genetic.Observer) (*Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.GenomeLength > 62 {
		return nil, &ValidationError{Field: "genome_length", Reason: "cannot exceed 62 bits"}
	}
	target, err := strconv.ParseInt(settings.Target, 10, 64)
	if err != nil || target < 0 {
		return nil, &ValidationError{Field: "target", Reason: "must be a non-negative integer"}
	}
	if target >= int64(1)<<settings.GenomeLength {
		return nil, &ValidationError{Field: "target", Reason: "does not fit in genome_length bits"}
	}

	return run[byte]{
		name:     b.Name(),
		settings: settings,
		ops:      genetic.Operators[byte]{Fitness: matchBinary(target)},
		config:   genetic.DefaultConfig(),
		factory:  genetic.NewGeneFactory(genetic.Choice([]byte("01"))),
		target:   0,
	}.solve(ctx, observe)
}

func matchBinary(target int64) genetic.FitnessFunc[byte] {
	return func(genes []byte) float64 {
		return -math.Abs(float64(target - bitsValue(genes)))
	}
}

// bitsValue reads genes of '0' and '1' as a big-endian integer.
func bitsValue(genes []byte) int64 {
	var v int64
	for _, g := range genes {
		v <<= 1
		if g == '1' {
			v |= 1
		}
	}
	return v
}
