package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/genyal/internal/problem"
	"github.com/cwbudde/genyal/internal/store"
	"github.com/cwbudde/genyal/pkg/genetic"
)

// progressInterval throttles SSE progress events. The job record itself is
// updated every generation.
const progressInterval = 250 * time.Millisecond

// runJob solves the job's problem on the calling goroutine.
// The run record is saved and the trace written when the server has a store
// and trace directory configured.
func (s *Server) runJob(ctx context.Context, jobID string) error {
	defer s.jobManager.release(jobID)

	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	name := job.Config.Problem

	if err := ctx.Err(); err != nil {
		s.markJobCancelled(jobID, name)
		return err
	}

	p, err := problem.Get(name)
	if err != nil {
		s.markJobFailed(jobID, name, err)
		return err
	}

	err = s.jobManager.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}
	s.metrics.jobStarted()
	slog.Info("Starting job", "job_id", jobID, "problem", name)

	observers := []genetic.Observer{s.progressObserver(jobID, name)}
	var trace *store.TraceWriter
	if s.traceDir != "" {
		trace, err = store.NewTraceWriter(s.traceDir, jobID, false)
		if err != nil {
			slog.Warn("Tracing disabled for job", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
			observers = append(observers, trace.Observer())
		}
	}

	result, err := p.Solve(ctx, job.Config.Settings, func(stats genetic.GenerationStats) {
		for _, observe := range observers {
			observe(stats)
		}
	})
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.markJobCancelled(jobID, name)
		return err
	case err != nil:
		s.markJobFailed(jobID, name, err)
		return err
	}

	if s.store != nil {
		record := store.NewRunRecord(jobID, job.Config.Settings, result)
		if err := s.store.SaveRun(record); err != nil {
			slog.Error("Failed to save run", "job_id", jobID, "error", err)
		}
	}
	s.metrics.jobFinished(name, jobID, StateCompleted, true)

	endTime := time.Now()
	err = s.jobManager.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Best = result.Best
		j.Fitness = result.Fitness
		j.Generation = result.Generations
		j.Solved = result.Solved
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"problem", name,
		"best", result.Best,
		"fitness", result.Fitness,
		"generations", result.Generations,
		"solved", result.Solved,
		"elapsed", result.Elapsed,
	)

	s.finish(jobID)
	return nil
}

// progressObserver updates the job after every generation and broadcasts a
// progress event at most once per progressInterval.
func (s *Server) progressObserver(jobID, name string) genetic.Observer {
	var last time.Time
	return func(stats genetic.GenerationStats) {
		var job Job
		s.jobManager.UpdateJob(jobID, func(j *Job) {
			j.Generation = stats.Generation
			j.Fitness = stats.Best
			j.MeanFitness = stats.Mean
			j.Best = stats.Fittest
			job = *j
		})
		s.metrics.generation(name, jobID, stats.Best)

		if time.Since(last) < progressInterval {
			return
		}
		last = time.Now()
		s.jobManager.broadcaster.Broadcast(jobEvent(job))
	}
}

// finish broadcasts the final state of a job and drops its SSE subscribers.
func (s *Server) finish(jobID string) {
	if job, ok := s.jobManager.GetJob(jobID); ok {
		s.jobManager.broadcaster.Broadcast(jobEvent(job))
	}
	s.jobManager.broadcaster.CleanupJob(jobID)
}

// markJobFailed marks a job as failed with an error message
func (s *Server) markJobFailed(jobID, name string, err error) {
	endTime := time.Now()
	var wasRunning bool
	s.jobManager.UpdateJob(jobID, func(j *Job) {
		wasRunning = j.State == StateRunning
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	s.metrics.jobFinished(name, jobID, StateFailed, wasRunning)
	slog.Error("Job failed", "job_id", jobID, "error", err)
	s.finish(jobID)
}

// markJobCancelled marks a job as cancelled
func (s *Server) markJobCancelled(jobID, name string) {
	endTime := time.Now()
	var wasRunning bool
	s.jobManager.UpdateJob(jobID, func(j *Job) {
		wasRunning = j.State == StateRunning
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	s.metrics.jobFinished(name, jobID, StateCancelled, wasRunning)
	slog.Info("Job cancelled", "job_id", jobID)
	s.finish(jobID)
}
