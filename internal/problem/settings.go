package problem

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Settings holds the tunable parameters of a problem run. Fields carry both
// JSON tags (job API) and TOML tags (settings files).
type Settings struct {
	Population     int     `json:"population" toml:"population"`
	GenomeLength   int     `json:"genomeLength" toml:"genome_length"`
	MutationRate   float64 `json:"mutationRate" toml:"mutation_rate"`
	Matches        int     `json:"matches" toml:"matches"`
	EliteFraction  float64 `json:"eliteFraction" toml:"elite_fraction"`
	MaxGenerations int     `json:"maxGenerations" toml:"max_generations"`
	StaleWindow    int     `json:"staleWindow,omitempty" toml:"stale_window"`
	Workers        int     `json:"workers,omitempty" toml:"workers"`
	Seed           int64   `json:"seed" toml:"seed"`
	// Target is problem specific: the word to match, the integer to encode, the
	// product to factorize.
	Target string `json:"target,omitempty" toml:"target"`
}

// Validate checks the settings and returns a *ValidationError on the first problem.
func (s Settings) Validate() error {
	if s.Population <= 0 {
		return &ValidationError{Field: "population", Reason: "must be positive"}
	}
	if s.GenomeLength <= 0 {
		return &ValidationError{Field: "genome_length", Reason: "must be positive"}
	}
	if s.MutationRate < 0 || s.MutationRate > 1 {
		return &ValidationError{Field: "mutation_rate", Reason: fmt.Sprintf("must be within [0, 1], got %v", s.MutationRate)}
	}
	if s.Matches <= 0 {
		return &ValidationError{Field: "matches", Reason: "must be positive"}
	}
	if s.EliteFraction < 0 || s.EliteFraction >= 1 {
		return &ValidationError{Field: "elite_fraction", Reason: fmt.Sprintf("must be within [0, 1), got %v", s.EliteFraction)}
	}
	if s.MaxGenerations <= 0 {
		return &ValidationError{Field: "max_generations", Reason: "must be positive"}
	}
	if s.StaleWindow < 0 {
		return &ValidationError{Field: "stale_window", Reason: "cannot be negative"}
	}
	if s.Workers < 0 {
		return &ValidationError{Field: "workers", Reason: "cannot be negative"}
	}
	return nil
}

// Overrides holds explicitly requested settings. Nil fields keep the base
// value, so zero values such as a mutation rate of 0 can be requested.
type Overrides struct {
	Population     *int     `json:"population,omitempty"`
	GenomeLength   *int     `json:"genomeLength,omitempty"`
	MutationRate   *float64 `json:"mutationRate,omitempty"`
	Matches        *int     `json:"matches,omitempty"`
	EliteFraction  *float64 `json:"eliteFraction,omitempty"`
	MaxGenerations *int     `json:"maxGenerations,omitempty"`
	StaleWindow    *int     `json:"staleWindow,omitempty"`
	Workers        *int     `json:"workers,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	Target         *string  `json:"target,omitempty"`
}

// Apply returns s with every non-nil field of o applied on top.
func (s Settings) Apply(o Overrides) Settings {
	if o.Population != nil {
		s.Population = *o.Population
	}
	if o.GenomeLength != nil {
		s.GenomeLength = *o.GenomeLength
	}
	if o.MutationRate != nil {
		s.MutationRate = *o.MutationRate
	}
	if o.Matches != nil {
		s.Matches = *o.Matches
	}
	if o.EliteFraction != nil {
		s.EliteFraction = *o.EliteFraction
	}
	if o.MaxGenerations != nil {
		s.MaxGenerations = *o.MaxGenerations
	}
	if o.StaleWindow != nil {
		s.StaleWindow = *o.StaleWindow
	}
	if o.Workers != nil {
		s.Workers = *o.Workers
	}
	if o.Seed != nil {
		s.Seed = *o.Seed
	}
	if o.Target != nil {
		s.Target = *o.Target
	}
	return s
}

// Resolve returns the defaults of p with o applied and validated.
func Resolve(p Problem, o Overrides) (Settings, error) {
	settings := p.Defaults().Apply(o)
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// LoadSettings decodes a TOML settings file on top of base. Keys missing from
// the file keep their value from base.
func LoadSettings(path string, base Settings) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to open settings: %w", err)
	}
	defer f.Close()

	settings := base
	md, err := toml.NewDecoder(f).Decode(&settings)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, &ValidationError{Field: undecoded[0].String(), Reason: "is not a known setting"}
	}
	return settings, nil
}

// ValidationError represents an invalid setting.
type ValidationError struct {
	Field  string
	Reason string
}

// ErrValidation matches any ValidationError.
var ErrValidation = &ValidationError{}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
