package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocars/internal/ga"
)

// value gathers the registry and returns the single sample of the named metric.
func value(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		metric := f.GetMetric()[0]
		if g := metric.GetGauge(); g != nil {
			return g.GetValue()
		}
		return metric.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestObserveGeneration(t *testing.T) {
	m := New()
	m.ObserveGeneration(3, ga.Summary{BestEvaluation: 0.5, MeanEvaluation: 0.25, BestFitness: 2})
	m.ObserveGeneration(4, ga.Summary{BestEvaluation: 0.75, MeanEvaluation: 0.5, BestFitness: 1.5})
	m.AgentsEvaluated(24)
	m.Restarted()

	assert.Equal(t, 4.0, value(t, m, "neurocars_generation"))
	assert.Equal(t, 0.75, value(t, m, "neurocars_best_evaluation"))
	assert.Equal(t, 0.5, value(t, m, "neurocars_mean_evaluation"))
	assert.Equal(t, 1.5, value(t, m, "neurocars_best_fitness"))
	assert.Equal(t, 2.0, value(t, m, "neurocars_generations_total"))
	assert.Equal(t, 24.0, value(t, m, "neurocars_agents_evaluated_total"))
	assert.Equal(t, 1.0, value(t, m, "neurocars_restarts_total"))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveGeneration(1, ga.Summary{BestEvaluation: 0.5})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "neurocars_best_evaluation 0.5")
	assert.Contains(t, body, "neurocars_generations_total 1")
}

func TestSeparateInstancesDoNotCollide(t *testing.T) {
	a, b := New(), New()
	a.Restarted()
	assert.Equal(t, 0.0, value(t, b, "neurocars_restarts_total"))
}

func TestServerRoutes(t *testing.T) {
	m := New()
	m.ObserveGeneration(7, ga.Summary{BestEvaluation: 0.25})
	m.Restarted()
	router := NewServer(":0", m, nil).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, 200, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, 7.0, health["generation"])
	assert.Equal(t, 1.0, health["restarts"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "neurocars_generation 7")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, 404, rec.Code)
}
