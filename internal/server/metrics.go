package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of a server. Each server owns its
// registry so several can coexist in one process.
type Metrics struct {
	registry    *prometheus.Registry
	jobs        *prometheus.CounterVec
	running     prometheus.Gauge
	generations *prometheus.CounterVec
	bestFitness *prometheus.GaugeVec
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genyal_jobs_total",
			Help: "Jobs that reached a final state.",
		}, []string{"problem", "state"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genyal_jobs_running",
			Help: "Jobs currently evolving.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genyal_generations_total",
			Help: "Generations evolved across all jobs.",
		}, []string{"problem"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genyal_best_fitness",
			Help: "Best fitness of the most recent generation of each unfinished job.",
		}, []string{"problem", "job_id"}),
	}

	m.registry.MustRegister(
		m.jobs,
		m.running,
		m.generations,
		m.bestFitness,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) jobStarted() {
	m.running.Inc()
}

// jobFinished counts a job reaching state and drops its fitness series.
// running is false for jobs that stopped before they started evolving.
func (m *Metrics) jobFinished(problem, jobID string, state JobState, running bool) {
	if running {
		m.running.Dec()
	}
	m.jobs.WithLabelValues(problem, string(state)).Inc()
	m.bestFitness.DeleteLabelValues(problem, jobID)
}

func (m *Metrics) generation(problem, jobID string, best float64) {
	m.generations.WithLabelValues(problem).Inc()
	m.bestFitness.WithLabelValues(problem, jobID).Set(best)
}
