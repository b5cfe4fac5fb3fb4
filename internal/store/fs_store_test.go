package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/genyal/internal/problem"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestRun creates a run record with test data.
func createTestRun(runID string) *RunRecord {
	return &RunRecord{
		ID:          runID,
		Problem:     "word",
		Settings:    problem.Word{}.Defaults(),
		Best:        "owo",
		Fitness:     3,
		Generations: 42,
		Solved:      true,
		Elapsed:     150 * time.Millisecond,
		Timestamp:   time.Now(),
	}
}

// testStoreContract exercises the behavior every Store implementation shares.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()

	if runs, err := s.ListRuns(); err != nil || len(runs) != 0 {
		t.Fatalf("Expected empty listing, got %v (err %v)", runs, err)
	}

	older := createTestRun("run-old")
	older.Timestamp = time.Now().Add(-time.Hour)
	newer := createTestRun("run-new")
	newer.Best = "owl"
	newer.Fitness = 2
	newer.Solved = false

	for _, run := range []*RunRecord{older, newer} {
		if err := s.SaveRun(run); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", run.ID, err)
		}
	}

	loaded, err := s.LoadRun("run-new")
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if loaded.Best != "owl" || loaded.Fitness != 2 || loaded.Solved {
		t.Errorf("Loaded run mismatch: %+v", loaded)
	}
	if loaded.Settings != newer.Settings {
		t.Errorf("Settings not preserved: %+v", loaded.Settings)
	}
	if !loaded.Timestamp.Equal(newer.Timestamp) {
		t.Errorf("Timestamp mismatch: %v vs %v", loaded.Timestamp, newer.Timestamp)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-new" || runs[1].ID != "run-old" {
		t.Errorf("Expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}

	// Overwrite
	newer.Best = "owo"
	newer.Solved = true
	if err := s.SaveRun(newer); err != nil {
		t.Fatalf("SaveRun overwrite failed: %v", err)
	}
	loaded, err = s.LoadRun("run-new")
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if loaded.Best != "owo" || !loaded.Solved {
		t.Errorf("Overwrite not applied: %+v", loaded)
	}

	if err := s.DeleteRun("run-old"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := s.LoadRun("run-old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteRun("run-old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}

	if err := s.SaveRun(nil); err == nil {
		t.Error("Expected error saving nil run")
	}
	invalid := createTestRun("")
	if err := s.SaveRun(invalid); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if _, err := s.LoadRun(""); err == nil {
		t.Error("Expected error for empty runID")
	}
	if err := s.DeleteRun(""); err == nil {
		t.Error("Expected error for empty runID")
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.BaseDir() != tempDir {
		t.Errorf("BaseDir() = %s, expected %s", store.BaseDir(), tempDir)
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestFSStoreContract(t *testing.T) {
	store, _ := setupTestStore(t)
	defer store.Close()
	testStoreContract(t, store)
}

func TestSaveRun_WritesFile(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveRun(createTestRun("test-run-123")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", "test-run-123", "run.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Run file was not created at %s", expectedPath)
	}
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be renamed away")
	}
}

func TestListRuns_SkipsInvalidDirectories(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveRun(createTestRun("valid-run")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	// Directory without run.json (e.g. a trace of an unfinished run)
	if err := os.MkdirAll(filepath.Join(tempDir, "runs", "no-record"), 0755); err != nil {
		t.Fatal(err)
	}
	// Corrupted run.json
	corrupt := filepath.Join(tempDir, "runs", "corrupt")
	if err := os.MkdirAll(corrupt, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corrupt, "run.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	// Stray file
	if err := os.WriteFile(filepath.Join(tempDir, "runs", "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "valid-run" {
		t.Errorf("Expected only valid-run, got %+v", runs)
	}
}

func TestDeleteRun_RemovesTrace(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveRun(createTestRun("traced")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	writer, err := NewTraceWriter(tempDir, "traced", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Write(traceEntry(0, 1))
	writer.Close()

	if err := store.DeleteRun("traced"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "runs", "traced")); !os.IsNotExist(err) {
		t.Error("Run directory still exists after delete")
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.SaveRun(createTestRun(fmt.Sprintf("concurrent-%d", i))); err != nil {
				t.Errorf("Concurrent save %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 10 {
		t.Errorf("Expected 10 runs, got %d", len(runs))
	}
}
