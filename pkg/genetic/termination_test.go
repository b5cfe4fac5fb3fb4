package genetic

import (
	"context"
	"testing"
)

// engineWithHistory returns an engine whose history holds the given best fitnesses.
func engineWithHistory(minimize bool, bests ...float64) *Engine[int] {
	e := &Engine[int]{cfg: Config{Minimize: minimize}}
	for g, best := range bests {
		e.history = append(e.history, GenerationStats{Generation: g, Best: best})
	}
	e.generation = len(bests) - 1
	if len(bests) > 0 {
		e.fittest = evaluated([]int{0}, bests[len(bests)-1])
	}
	return e
}

func TestStaleFor(t *testing.T) {
	tests := []struct {
		name     string
		minimize bool
		window   int
		bests    []float64
		expected bool
	}{
		{"history too short", false, 3, []float64{1, 1, 1}, false},
		{"flat", false, 3, []float64{1, 1, 1, 1}, true},
		{"improved inside window", false, 3, []float64{1, 1, 2, 2}, false},
		{"improved before window", false, 2, []float64{1, 2, 2, 2}, true},
		{"worse inside window", false, 2, []float64{3, 2, 1}, true},
		{"minimize improved", true, 2, []float64{5, 5, 4}, false},
		{"minimize flat", true, 2, []float64{5, 5, 5}, true},
		{"zero window", false, 0, []float64{1, 1, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engineWithHistory(tt.minimize, tt.bests...)
			if got := StaleFor[int](tt.window)(e); got != tt.expected {
				t.Errorf("StaleFor(%d) = %v, expected %v", tt.window, got, tt.expected)
			}
		})
	}
}

func TestTargetFitness(t *testing.T) {
	if TargetFitness[int](3)(engineWithHistory(false, 1, 2)) {
		t.Error("Target 3 should not be reached at fitness 2")
	}
	if !TargetFitness[int](3)(engineWithHistory(false, 1, 3)) {
		t.Error("Target 3 should be reached at fitness 3")
	}
	if !TargetFitness[int](0.5)(engineWithHistory(true, 2, 0.1)) {
		t.Error("Minimizing target 0.5 should be reached at 0.1")
	}
	if TargetFitness[int](0)(&Engine[int]{}) {
		t.Error("Engine without population should not reach any target")
	}
}

func TestMaxGenerations(t *testing.T) {
	e := engineWithHistory(false, 1, 1, 1)
	if MaxGenerations[int](3)(e) {
		t.Error("Generation 2 should not stop at 3")
	}
	if !MaxGenerations[int](2)(e) {
		t.Error("Generation 2 should stop at 2")
	}
}

func TestCombinators(t *testing.T) {
	yes := func(*Engine[int]) bool { return true }
	no := func(*Engine[int]) bool { return false }
	e := &Engine[int]{}

	tests := []struct {
		name     string
		pred     Termination[int]
		expected bool
	}{
		{"any empty", Any[int](), false},
		{"any one true", Any(no, yes), true},
		{"any all false", Any(no, no), false},
		{"all empty", All[int](), false},
		{"all true", All(yes, yes), true},
		{"all one false", All(yes, no), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(e); got != tt.expected {
				t.Errorf("Got %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pred := ContextDone[int](ctx)
	if pred(&Engine[int]{}) {
		t.Error("Live context should not stop evolution")
	}
	cancel()
	if !pred(&Engine[int]{}) {
		t.Error("Cancelled context should stop evolution")
	}
}

func TestConvergenceTracker(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Patience: 2, Threshold: 0.01}, false)

	steps := []struct {
		best     float64
		expected bool
	}{
		{10, false},
		{10.05, false}, // 0.5% is below threshold
		{11, false},    // significant, resets
		{11, false},
		{11, true},
	}
	for i, step := range steps {
		if got := tracker.Update(step.best); got != step.expected {
			t.Fatalf("Step %d (best %f): got %v, expected %v", i, step.best, got, step.expected)
		}
	}

	tracker.Reset()
	if tracker.StaleCount() != 0 {
		t.Errorf("Reset should clear the stale count, got %d", tracker.StaleCount())
	}
}

func TestConvergenceTrackerMinimize(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Patience: 1, Threshold: 0.1}, true)
	tracker.Update(100)
	if tracker.Update(50) {
		t.Error("Halving the cost is significant progress")
	}
	if !tracker.Update(49) {
		t.Error("2% improvement should count as stale with a 10% threshold")
	}
}

func TestConvergedStopsConstantFitness(t *testing.T) {
	engine, err := New(Operators[rune]{
		Fitness:     func([]rune) float64 { return 1 },
		Termination: Any(Converged[rune](ConvergenceConfig{Patience: 3, Threshold: 0.001}), MaxGenerations[rune](100)),
	}, Config{Seed: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := engine.CreatePopulation(6, 3, lowercase(), 0.1); err != nil {
		t.Fatalf("CreatePopulation failed: %v", err)
	}
	if err := engine.Evolve(); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if engine.Generation() != 3 {
		t.Errorf("Expected convergence after 3 stale generations, got generation %d", engine.Generation())
	}
}
