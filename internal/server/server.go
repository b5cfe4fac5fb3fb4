package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/alitto/pond"

	"github.com/cwbudde/genyal/internal/problem"
	"github.com/cwbudde/genyal/internal/store"
)

// Options configures a Server. Zero values select defaults.
type Options struct {
	// Workers bounds the number of jobs evolving concurrently.
	Workers int
	// QueueSize bounds the number of jobs waiting for a worker.
	QueueSize int
	// Store receives a run record for every completed job. Optional.
	Store store.Store
	// TraceDir is the base directory of per-job traces. Empty disables tracing.
	TraceDir string
}

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	metrics    *Metrics
	pool       *pond.WorkerPool
	store      store.Store
	traceDir   string
	addr       string
	server     *http.Server
}

// NewServer creates a new HTTP server
func NewServer(addr string, opts Options) *Server {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Server{
		jobManager: NewJobManager(),
		metrics:    NewMetrics(),
		pool:       pond.New(opts.Workers, opts.QueueSize),
		store:      opts.Store,
		traceDir:   opts.TraceDir,
		addr:       addr,
	}
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register UI routes
	mux.HandleFunc("/", s.handleIndex)

	// Register API routes
	mux.HandleFunc("/api/v1/problems", s.handleProblems)
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.Handle("/metrics", s.metrics.Handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, cancels unfinished jobs and waits for
// their workers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.jobManager.CancelAll()
	s.pool.StopAndWait()
	return err
}

// SubmitJob resolves the request against the problem defaults, registers a job
// and queues it on the worker pool.
func (s *Server) SubmitJob(req JobRequest) (Job, error) {
	p, err := problem.Get(req.Problem)
	if err != nil {
		return Job{}, err
	}
	settings, err := problem.Resolve(p, req.Settings)
	if err != nil {
		return Job{}, err
	}
	config := JobConfig{Problem: p.Name(), Settings: settings}

	job, ctx := s.jobManager.CreateJob(context.Background(), config)
	submitted := s.pool.TrySubmit(func() {
		if err := s.runJob(ctx, job.ID); err != nil {
			slog.Debug("Job ended with error", "job_id", job.ID, "error", err)
		}
	})
	if !submitted {
		s.jobManager.CancelJob(job.ID)
		s.markJobFailed(job.ID, config.Problem, ErrQueueFull)
		s.jobManager.release(job.ID)
		return Job{}, ErrQueueFull
	}

	slog.Info("Job queued", "job_id", job.ID, "problem", config.Problem)
	return job, nil
}

// ErrQueueFull is returned by SubmitJob when no worker slot is free.
var ErrQueueFull = errors.New("job queue is full")

// handleProblems handles GET /api/v1/problems
func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type problemInfo struct {
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Defaults    problem.Settings `json:"defaults"`
	}
	names := problem.Names()
	infos := make([]problemInfo, 0, len(names))
	for _, name := range names {
		p, err := problem.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, problemInfo{Name: name, Description: p.Description(), Defaults: p.Defaults()})
	}

	writeJSON(w, http.StatusOK, infos)
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	// Parse job ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Route based on subpath
	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleCancelJob(w, r, jobID)
	case r.Method != http.MethodGet:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	case len(parts) == 1:
		s.handleGetJob(w, r, jobID)
	case parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "stream":
		s.handleJobStream(w, r, jobID)
	case parts[1] == "trace":
		s.handleGetJobTrace(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	job, err := s.SubmitJob(req)
	switch {
	case errors.Is(err, problem.ErrUnknown), errors.Is(err, problem.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrQueueFull):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJob handles GET /api/v1/jobs/:id
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// StatusResponse is the body of GET /api/v1/jobs/:id/status
type StatusResponse struct {
	ID          string           `json:"id"`
	State       JobState         `json:"state"`
	Problem     string           `json:"problem"`
	Settings    problem.Settings `json:"settings"`
	Best        string           `json:"best,omitempty"`
	Fitness     float64          `json:"fitness"`
	MeanFitness float64          `json:"meanFitness"`
	Generation  int              `json:"generation"`
	Solved      bool             `json:"solved"`
	Elapsed     float64          `json:"elapsed"`
	GPS         float64          `json:"gps"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     *time.Time       `json:"endTime,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	elapsed := job.Elapsed()
	gps := float64(0)
	if elapsed.Seconds() > 0 {
		gps = float64(job.Generation) / elapsed.Seconds()
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		ID:          job.ID,
		State:       job.State,
		Problem:     job.Config.Problem,
		Settings:    job.Config.Settings,
		Best:        job.Best,
		Fitness:     job.Fitness,
		MeanFitness: job.MeanFitness,
		Generation:  job.Generation,
		Solved:      job.Solved,
		Elapsed:     elapsed.Seconds(),
		GPS:         gps,
		StartTime:   job.StartTime,
		EndTime:     job.EndTime,
		Error:       job.Error,
	})
}

// handleCancelJob handles DELETE /api/v1/jobs/:id
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if !s.jobManager.CancelJob(jobID) {
		http.Error(w, fmt.Sprintf("Job already %s", job.State), http.StatusConflict)
		return
	}

	slog.Info("Job cancellation requested", "job_id", jobID)
	w.WriteHeader(http.StatusAccepted)
}

// handleGetJobTrace handles GET /api/v1/jobs/:id/trace
func (s *Server) handleGetJobTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if s.traceDir == "" {
		http.Error(w, "Tracing is disabled", http.StatusNotFound)
		return
	}

	reader, err := store.NewTraceReader(s.traceDir, jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No trace yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
