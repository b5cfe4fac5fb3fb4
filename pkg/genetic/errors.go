package genetic

import "fmt"

// GeneticsError reports misuse of a genetic element, such as evaluating an
// individual without genes. Use errors.Is(err, ErrGenetics) to match any of them.
type GeneticsError struct {
	Cause string
}

func (e *GeneticsError) Error() string {
	if e.Cause == "" {
		return "genetics error"
	}
	return "genetics error: " + e.Cause
}

// Is matches ErrGenetics and any GeneticsError with the same cause.
func (e *GeneticsError) Is(target error) bool {
	t, ok := target.(*GeneticsError)
	if !ok {
		return false
	}
	return t.Cause == "" || t.Cause == e.Cause
}

var (
	// ErrGenetics matches every genetics error, crossover errors included.
	ErrGenetics = &GeneticsError{}

	ErrNoGenes         = &GeneticsError{Cause: "individual should have genes"}
	ErrNoFactory       = &GeneticsError{Cause: "individual has no gene factory"}
	ErrEmptyPopulation = &GeneticsError{Cause: "population is empty"}
)

// CrossoverError is returned when two parents of different genome lengths are crossed.
type CrossoverError struct {
	LenA int
	LenB int
}

// ErrCrossover matches any CrossoverError.
var ErrCrossover = &CrossoverError{}

func (e *CrossoverError) Error() string {
	return fmt.Sprintf("can't perform a crossover over individuals of different sizes: %d != %d", e.LenA, e.LenB)
}

// Is makes a CrossoverError match both ErrCrossover and ErrGenetics.
func (e *CrossoverError) Is(target error) bool {
	switch t := target.(type) {
	case *CrossoverError:
		return true
	case *GeneticsError:
		return t.Cause == ""
	}
	return false
}

// ConfigError represents an invalid construction argument.
type ConfigError struct {
	Field  string
	Reason string
}

// ErrConfig matches any ConfigError.
var ErrConfig = &ConfigError{}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

func checkProbability(field string, p float64) error {
	if p < 0 || p > 1 || p != p {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("must be within [0, 1], got %v", p)}
	}
	return nil
}

func checkPositive(field string, n int) error {
	if n <= 0 {
		return &ConfigError{Field: field, Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	return nil
}
