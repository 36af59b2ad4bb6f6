package eval

import (
	"bytes"
	"context"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocars/internal/agent"
	"neurocars/internal/genotype"
	"neurocars/internal/nn"
	"neurocars/internal/track"
)

var topology = nn.Topology{5, 2}

// constant returns a genotype whose controller ignores its sensors and outputs
// softsign(turn), softsign(engine).
func constant(turn, engine float64) *genotype.Genotype {
	params := make([]float64, topology.WeightCount())
	params[10] = turn
	params[11] = engine
	return genotype.New(params)
}

func newEvaluator(t *testing.T, opts ...Option) (*Evaluator, *atomic.Int32) {
	t.Helper()
	e := NewEvaluator(track.NewSimulation(track.Default(), track.WithMaxTicks(2000)), topology, opts...)
	var died atomic.Int32
	e.OnAllDied(func() { died.Add(1) })
	return e, &died
}

func TestEvaluateScoresEveryGenotype(t *testing.T) {
	e, died := newEvaluator(t, WithWorkers(2))
	pop := []*genotype.Genotype{constant(0, 100), constant(0, 0), constant(0, 100)}
	pop[1].Evaluation = 0.5

	res, err := e.Evaluate(context.Background(), pop)
	require.NoError(t, err)

	assert.Equal(t, int32(1), died.Load())
	require.Len(t, res.Runs, 3)
	assert.Equal(t, track.DeathWall, res.Runs[0].Death)
	assert.Equal(t, track.DeathStall, res.Runs[1].Death)
	assert.Equal(t, res.Runs[0], res.Runs[2], "identical controllers drive identically")

	assert.Greater(t, pop[0].Evaluation, float32(0))
	assert.Zero(t, pop[1].Evaluation, "previous evaluation is reset")
	assert.Equal(t, pop[0].Evaluation, pop[2].Evaluation)
	assert.Equal(t, 3, res.Aggregate.NumRuns)
	assert.Equal(t, 2, res.Aggregate.DeathCounts[track.DeathWall])
}

func TestEvaluateNotifiesOncePerEvaluation(t *testing.T) {
	e, died := newEvaluator(t, WithWorkers(1))
	pop := []*genotype.Genotype{constant(0, 0), constant(0.5, 0.5)}

	for i := 1; i <= 3; i++ {
		_, err := e.Evaluate(context.Background(), pop)
		require.NoError(t, err)
		assert.Equal(t, int32(i), died.Load())
	}
}

func TestEvaluateEmptyPopulation(t *testing.T) {
	e, died := newEvaluator(t)
	res, err := e.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Runs)
	assert.Equal(t, int32(1), died.Load())
}

func TestEvaluateRejectsMismatchedGenotype(t *testing.T) {
	e, died := newEvaluator(t)
	_, err := e.Evaluate(context.Background(), []*genotype.Genotype{genotype.New([]float64{1, 2, 3})})
	require.ErrorIs(t, err, agent.ErrWeightMismatch)
	assert.Equal(t, int32(1), died.Load())
}

func TestEvaluateCanceled(t *testing.T) {
	e, died := newEvaluator(t, WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, []*genotype.Genotype{constant(0, 0), constant(0, 0)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), died.Load())
}

func TestEvaluateWithActivation(t *testing.T) {
	e, _ := newEvaluator(t, WithActivation(nn.Tanh))
	pop := []*genotype.Genotype{constant(0, 100)}
	res, err := e.Evaluate(context.Background(), pop)
	require.NoError(t, err)
	assert.Equal(t, track.DeathWall, res.Runs[0].Death)
}

func TestEvaluatorLoggerDefaultsToDiscard(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, e := range []*Evaluator{
		NewEvaluator(track.NewSimulation(track.Default(), track.WithMaxTicks(50)), topology),
		NewEvaluator(track.NewSimulation(track.Default(), track.WithMaxTicks(50)), topology, WithLogger(nil)),
	} {
		_, err := e.Evaluate(context.Background(), []*genotype.Genotype{constant(0, 0)})
		require.NoError(t, err)
	}
	assert.Empty(t, buf.String())
}
