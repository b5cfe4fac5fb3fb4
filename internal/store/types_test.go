package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/genyal/internal/problem"
)

func TestRunRecord_JSONSerialization(t *testing.T) {
	original := createTestRun("test-run-json")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal run: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Failed to unmarshal into map: %v", err)
	}
	for _, key := range []string{"id", "problem", "settings", "best", "fitness", "generations", "solved", "elapsed", "timestamp"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Missing JSON field %q", key)
		}
	}
	settings, ok := fields["settings"].(map[string]any)
	if !ok || settings["population"] != float64(16) {
		t.Errorf("Settings not serialized with JSON tags: %v", fields["settings"])
	}
}

func TestRunRecord_Validate(t *testing.T) {
	if err := createTestRun("valid").Validate(); err != nil {
		t.Fatalf("Valid run failed validation: %v", err)
	}

	tests := []struct {
		name   string
		field  string
		mutate func(*RunRecord)
	}{
		{"empty id", "ID", func(r *RunRecord) { r.ID = "" }},
		{"empty problem", "Problem", func(r *RunRecord) { r.Problem = "" }},
		{"negative generations", "Generations", func(r *RunRecord) { r.Generations = -1 }},
		{"negative elapsed", "Elapsed", func(r *RunRecord) { r.Elapsed = -time.Second }},
		{"zero timestamp", "Timestamp", func(r *RunRecord) { r.Timestamp = time.Time{} }},
		{"invalid settings", "Settings", func(r *RunRecord) { r.Settings.Population = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := createTestRun("run")
			tt.mutate(run)

			err := run.Validate()
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, validationErr.Field)
			}
		})
	}
}

func TestRunRecord_ToInfo(t *testing.T) {
	run := createTestRun("info")
	info := run.ToInfo()

	if info.ID != run.ID || info.Problem != run.Problem || info.Best != run.Best ||
		info.Fitness != run.Fitness || info.Generations != run.Generations ||
		info.Solved != run.Solved || !info.Timestamp.Equal(run.Timestamp) {
		t.Errorf("ToInfo mismatch: %+v vs %+v", info, run)
	}
}

func TestNewRunRecord(t *testing.T) {
	settings := problem.Word{}.Defaults()
	result := &problem.Result{
		Problem:     "word",
		Best:        "owo",
		Fitness:     3,
		Generations: 12,
		Solved:      true,
		Elapsed:     time.Second,
	}

	before := time.Now()
	run := NewRunRecord("new-run", settings, result)

	if run.ID != "new-run" || run.Problem != "word" || run.Best != "owo" || run.Generations != 12 || !run.Solved {
		t.Errorf("Unexpected record: %+v", run)
	}
	if run.Timestamp.Before(before) {
		t.Error("Timestamp should be set to the creation time")
	}
	if err := run.Validate(); err != nil {
		t.Errorf("New record should be valid: %v", err)
	}
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{RunID: "abc"}
	if err.Error() != "run not found: abc" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
}
