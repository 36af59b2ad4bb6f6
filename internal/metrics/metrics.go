package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neurocars/internal/ga"
)

// Metrics exposes training progress on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	generation      prometheus.Gauge
	bestEvaluation  prometheus.Gauge
	meanEvaluation  prometheus.Gauge
	bestFitness     prometheus.Gauge
	generations     prometheus.Counter
	restarts        prometheus.Counter
	agentsEvaluated prometheus.Counter

	lastGeneration atomic.Uint64
	restartCount   atomic.Uint64
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurocars_generation",
			Help: "Generation of the current run.",
		}),
		bestEvaluation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurocars_best_evaluation",
			Help: "Best course completion of the last scored generation.",
		}),
		meanEvaluation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurocars_mean_evaluation",
			Help: "Mean course completion of the last scored generation.",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurocars_best_fitness",
			Help: "Best relative fitness of the last scored generation.",
		}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neurocars_generations_total",
			Help: "Generations scored across all runs.",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neurocars_restarts_total",
			Help: "Runs restarted after reaching their generation limit.",
		}),
		agentsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neurocars_agents_evaluated_total",
			Help: "Agents driven to completion.",
		}),
	}
	m.registry.MustRegister(
		m.generation, m.bestEvaluation, m.meanEvaluation, m.bestFitness,
		m.generations, m.restarts, m.agentsEvaluated,
	)
	return m
}

// ObserveGeneration records a scored generation.
func (m *Metrics) ObserveGeneration(gen uint, s ga.Summary) {
	m.generation.Set(float64(gen))
	m.bestEvaluation.Set(float64(s.BestEvaluation))
	m.meanEvaluation.Set(float64(s.MeanEvaluation))
	m.bestFitness.Set(float64(s.BestFitness))
	m.generations.Inc()
	m.lastGeneration.Store(uint64(gen))
}

// AgentsEvaluated adds n finished agent runs.
func (m *Metrics) AgentsEvaluated(n int) {
	m.agentsEvaluated.Add(float64(n))
}

// Restarted counts a run restart.
func (m *Metrics) Restarted() {
	m.restarts.Inc()
	m.restartCount.Add(1)
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
