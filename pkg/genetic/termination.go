package genetic

import "context"

// Termination decides whether evolution should stop. It is checked before every generation.
type Termination[T any] func(e *Engine[T]) bool

// MaxGenerations stops once n generations have been evolved.
func MaxGenerations[T any](n int) Termination[T] {
	return func(e *Engine[T]) bool {
		return e.Generation() >= n
	}
}

// StaleFor stops when the best fitness of the last window generations does not
// improve on the best fitness recorded window generations earlier.
func StaleFor[T any](window int) Termination[T] {
	return func(e *Engine[T]) bool {
		if window <= 0 {
			return false
		}
		history := e.history
		if len(history) <= window {
			return false
		}
		reference := history[len(history)-1-window].Best
		minimize := e.cfg.Minimize
		for _, stats := range history[len(history)-window:] {
			if better(stats.Best, reference, minimize) {
				return false
			}
		}
		return true
	}
}

// TargetFitness stops as soon as the fittest individual reaches target.
func TargetFitness[T any](target float64) Termination[T] {
	return func(e *Engine[T]) bool {
		if e.fittest == nil {
			return false
		}
		if e.cfg.Minimize {
			return e.fittest.fitness <= target
		}
		return e.fittest.fitness >= target
	}
}

// ContextDone stops when ctx is cancelled or its deadline passes.
func ContextDone[T any](ctx context.Context) Termination[T] {
	return func(*Engine[T]) bool {
		return ctx.Err() != nil
	}
}

// Any stops when at least one of the predicates holds.
func Any[T any](predicates ...Termination[T]) Termination[T] {
	return func(e *Engine[T]) bool {
		for _, p := range predicates {
			if p(e) {
				return true
			}
		}
		return false
	}
}

// All stops when every predicate holds. All of nothing never stops.
func All[T any](predicates ...Termination[T]) Termination[T] {
	return func(e *Engine[T]) bool {
		if len(predicates) == 0 {
			return false
		}
		for _, p := range predicates {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

func better(a, b float64, minimize bool) bool {
	if minimize {
		return a < b
	}
	return a > b
}
