package problem

import (
	"context"
	"strings"

	"github.com/cwbudde/genyal/pkg/genetic"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func init() {
	Register("word", func() Problem { return Word{} })
}

// Word evolves a string of lowercase letters toward a target word.
// Fitness is the number of positions that already match.
type Word struct{}

func (Word) Name() string { return "word" }

func (Word) Description() string {
	return "Evolve lowercase letters until they spell the target word"
}

func (Word) Defaults() Settings {
	return Settings{
		Population:     16,
		GenomeLength:   3,
		MutationRate:   0.1,
		Matches:        5,
		MaxGenerations: 5000,
		Seed:           42,
		Target:         "owo",
	}
}

func (w Word) Solve(ctx context.Context, settings Settings, observe genetic.Observer) (*Result, error) {
	target := []rune(strings.ToLower(settings.Target))
	for _, r := range target {
		if !strings.ContainsRune(alphabet, r) {
			return nil, &ValidationError{Field: "target", Reason: "must only contain lowercase letters a-z"}
		}
	}
	settings.GenomeLength = len(target)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return run[rune]{
		name:     w.Name(),
		settings: settings,
		ops:      genetic.Operators[rune]{Fitness: matchWord(target)},
		config:   genetic.DefaultConfig(),
		factory:  genetic.NewGeneFactory(genetic.Choice([]rune(alphabet))),
		target:   float64(len(target)),
	}.solve(ctx, observe)
}

func matchWord(target []rune) genetic.FitnessFunc[rune] {
	return func(genes []rune) float64 {
		score := 0
		for i, g := range genes {
			if i < len(target) && g == target[i] {
				score++
			}
		}
		return float64(score)
	}
}
