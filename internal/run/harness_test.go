package run

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocars/internal/config"
	"neurocars/internal/eval"
	"neurocars/internal/ga"
	"neurocars/internal/genotype"
	"neurocars/internal/metrics"
	"neurocars/internal/models"
	"neurocars/internal/nn"
	"neurocars/internal/track"
)

var topology = nn.Topology{5, 2}

type fixture struct {
	cfg     *config.Config
	store   *models.MemoryStore
	manager *models.Manager
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Models.Store = "memory"
	cfg.Models.Topology = topology.String()
	cfg.GA.Population = 6
	cfg.GA.RestartAfter = 3
	cfg.GA.RestartDelay = time.Millisecond
	require.NoError(t, cfg.Validate())

	store := models.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	manager := models.NewManager(store, ga.NewRand(3), models.WithDefaultTopology(topology))
	require.NoError(t, manager.Load(context.Background()))

	return &fixture{cfg: cfg, store: store, manager: manager, metrics: metrics.New()}
}

func (f *fixture) harness(opts ...Option) *Harness {
	sim := track.NewSimulation(track.Default(), track.WithMaxTicks(200))
	evaluator := eval.NewEvaluator(sim, f.manager.Topology(), eval.WithWorkers(2))
	opts = append([]Option{WithMetrics(f.metrics)}, opts...)
	return New(f.cfg, f.manager, evaluator, ga.NewRand(9), opts...)
}

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func TestRunRestartsAfterGenerationLimit(t *testing.T) {
	f := newFixture(t)
	h := f.harness(WithRunIDs(counterIDs()))

	summary, err := h.Run(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Generations)
	assert.Equal(t, 2, summary.Restarts)
	assert.Equal(t, []string{"run-1", "run-2", "run-3"}, summary.RunIDs)
	assert.Equal(t, 7*6, summary.AgentsEvaluated)
	assert.Positive(t, summary.Elapsed)

	require.NotNil(t, summary.Champion)
	assert.Equal(t, topology.WeightCount(), summary.Champion.ParameterCount())
	assert.Contains(t, summary.RunIDs, summary.ChampionRunID)
	assert.LessOrEqual(t, summary.ChampionGeneration, uint(3))
}

func TestRunWithoutRestartLimit(t *testing.T) {
	f := newFixture(t)
	f.cfg.GA.RestartAfter = 0
	summary, err := f.harness(WithLogger(nil), WithRunIDs(counterIDs())).Run(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Generations)
	assert.Zero(t, summary.Restarts)
	assert.Equal(t, []string{"run-1"}, summary.RunIDs)
}

func TestRunUsesUUIDRunIDs(t *testing.T) {
	f := newFixture(t)
	summary, err := f.harness().Run(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, summary.RunIDs, 1)
	_, err = uuid.Parse(summary.RunIDs[0])
	require.NoError(t, err)
}

func TestRunCanBeCalledAgain(t *testing.T) {
	f := newFixture(t)
	h := f.harness()

	_, err := h.Run(context.Background(), 2)
	require.NoError(t, err)
	summary, err := h.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Generations)
}

func TestRunResumeEvaluatesSeedsAsIs(t *testing.T) {
	f := newFixture(t)
	f.cfg.Models.LoadFromFile = true
	f.cfg.GA.RestartAfter = -1

	summary, err := f.harness().Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Generations)
	assert.Equal(t, 12, summary.AgentsEvaluated)
	assert.Zero(t, summary.Restarts)
}

func TestRunRequiresActiveModels(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.SetActive("Alpha", false))
	require.NoError(t, f.manager.SetActive("Beta", false))

	_, err := f.harness().Run(context.Background(), 1)
	require.ErrorIs(t, err, ErrInvalidActiveModels)
}

func TestRunStopsWithContext(t *testing.T) {
	f := newFixture(t)
	f.cfg.GA.RestartAfter = -1
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	summary, err := f.harness().Run(ctx, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, summary.Restarts)
}

func TestFitnessReadyPushesGoodGenotypes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.SetActive("Beta", false))
	h := f.harness()
	ctx := context.Background()
	require.NoError(t, h.startRun(ctx, false))

	pop := make([]*genotype.Genotype, 4)
	for i, e := range []float32{0.95, 0.85, 0.5, 0.9} {
		params := make([]float64, topology.WeightCount())
		params[0] = float64(i)
		pop[i] = genotype.New(params)
		pop[i].Evaluation = e
	}
	h.fitnessReady(ctx, pop)

	assert.Equal(t, 2, h.summary.ModelUpdates, "updates stop at the first genotype below the threshold")
	saved, ok, err := f.store.GetModel(ctx, "Alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, saved.Genotype.At(0), "last pushed genotype wins")

	assert.Equal(t, float32(0.95), h.summary.Champion.Evaluation)
	assert.Equal(t, 1, h.summary.Generations)
}

func TestPadSeeds(t *testing.T) {
	a, b := genotype.New([]float64{1}), genotype.New([]float64{2})
	padded := padSeeds([]*genotype.Genotype{a, b}, 5)
	require.Len(t, padded, 5)
	assert.Same(t, a, padded[0])
	assert.NotSame(t, a, padded[2])
	assert.Equal(t, 1.0, padded[2].At(0))
	assert.Equal(t, 2.0, padded[3].At(0))

	assert.Len(t, padSeeds([]*genotype.Genotype{a, b}, 1), 2)
}
