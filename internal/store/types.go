package store

import (
	"time"

	"github.com/cwbudde/genyal/internal/problem"
)

// RunRecord is the persisted outcome of one problem run.
//
// The record keeps the settings the run was started with, so a run can be
// repeated exactly when it was seeded. The per-generation statistics live in
// the run's trace file rather than in the record.
type RunRecord struct {
	// ID is the unique identifier of the run
	ID string `json:"id"`

	// Problem is the registered problem name
	Problem string `json:"problem"`

	// Settings are the effective run settings
	Settings problem.Settings `json:"settings"`

	// Best is the string rendering of the fittest genome
	Best string `json:"best"`

	// Fitness is the fitness of Best
	Fitness float64 `json:"fitness"`

	Generations int           `json:"generations"`
	Solved      bool          `json:"solved"`
	Elapsed     time.Duration `json:"elapsed"`

	// Timestamp records when the run finished
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo is the listing view of a run.
type RunInfo struct {
	ID          string    `json:"id"`
	Problem     string    `json:"problem"`
	Best        string    `json:"best"`
	Fitness     float64   `json:"fitness"`
	Generations int       `json:"generations"`
	Solved      bool      `json:"solved"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRunRecord creates a record from a finished run.
func NewRunRecord(runID string, settings problem.Settings, result *problem.Result) *RunRecord {
	return &RunRecord{
		ID:          runID,
		Problem:     result.Problem,
		Settings:    settings,
		Best:        result.Best,
		Fitness:     result.Fitness,
		Generations: result.Generations,
		Solved:      result.Solved,
		Elapsed:     result.Elapsed,
		Timestamp:   time.Now(),
	}
}

// ToInfo converts a full RunRecord to RunInfo.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		ID:          r.ID,
		Problem:     r.Problem,
		Best:        r.Best,
		Fitness:     r.Fitness,
		Generations: r.Generations,
		Solved:      r.Solved,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the record has valid data.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Problem == "" {
		return &ValidationError{Field: "Problem", Reason: "cannot be empty"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.Elapsed < 0 {
		return &ValidationError{Field: "Elapsed", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if err := r.Settings.Validate(); err != nil {
		return &ValidationError{Field: "Settings", Reason: err.Error()}
	}
	return nil
}

// ValidationError represents a run record validation error.
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
