package genetic

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines when evolution counts as converged.
type ConvergenceConfig struct {
	// Patience is the number of generations without significant improvement before stopping.
	Patience int

	// Threshold is the minimum relative improvement of the best fitness that counts as progress.
	// Example: 0.001 = 0.1% improvement required.
	Threshold float64
}

// DefaultConvergenceConfig returns a patience of 20 generations and a 0.1% threshold.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Patience:  20,
		Threshold: 0.001,
	}
}

// ConvergenceTracker follows the best fitness per generation and reports when it stalls.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	minimize        bool
	lastSignificant float64
	staleCount      int
	updates         int
}

func NewConvergenceTracker(config ConvergenceConfig, minimize bool) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:   config,
		minimize: minimize,
	}
}

// Update records the best fitness of a generation and returns true once converged.
func (c *ConvergenceTracker) Update(best float64) bool {
	c.updates++
	if c.updates == 1 {
		c.lastSignificant = best
		return false
	}

	improvement := relativeImprovement(c.lastSignificant, best, c.minimize)
	if improvement >= c.config.Threshold && improvement > 0 {
		c.lastSignificant = best
		c.staleCount = 0
		return false
	}

	c.staleCount++
	slog.Debug("No significant fitness improvement",
		"best_fitness", best,
		"last_significant", c.lastSignificant,
		"relative_improvement", improvement,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)
	return c.staleCount >= c.config.Patience
}

// StaleCount returns the number of updates since the last significant improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

func (c *ConvergenceTracker) Reset() {
	c.lastSignificant = 0
	c.staleCount = 0
	c.updates = 0
}

// relativeImprovement measures how much better next is than prev. A zero
// reference falls back to the absolute difference.
func relativeImprovement(prev, next float64, minimize bool) float64 {
	delta := next - prev
	if minimize {
		delta = prev - next
	}
	if prev == 0 {
		return delta
	}
	return delta / math.Abs(prev)
}

// Converged stops once the best fitness has not improved by config.Threshold
// (relative) for config.Patience consecutive generations. The tracker is fed
// once per generation no matter how often the predicate is checked.
func Converged[T any](config ConvergenceConfig) Termination[T] {
	var tracker *ConvergenceTracker
	lastGeneration := -1
	converged := false

	return func(e *Engine[T]) bool {
		if config.Patience <= 0 || e.fittest == nil {
			return false
		}
		if tracker == nil || e.Generation() < lastGeneration {
			tracker = NewConvergenceTracker(config, e.cfg.Minimize)
			lastGeneration = -1
			converged = false
		}
		if e.Generation() == lastGeneration {
			return converged
		}
		lastGeneration = e.Generation()
		converged = tracker.Update(e.fittest.fitness)
		if converged {
			slog.Info("Convergence detected - stopping early",
				"generation", lastGeneration,
				"stale_count", tracker.StaleCount(),
				"patience", config.Patience,
				"best_fitness", e.fittest.fitness,
			)
		}
		return converged
	}
}
