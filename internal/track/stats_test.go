package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	agg := Aggregate([]RunStats{
		{Completion: 0.2, Ticks: 100, Distance: 10, Death: DeathWall},
		{Completion: 0.4, Ticks: 200, Distance: 30, Death: DeathWall},
		{Completion: 0.9, Ticks: 600, Distance: 80, Death: DeathStall},
	})

	assert.Equal(t, 3, agg.NumRuns)
	assert.InDelta(t, 0.5, agg.CompletionMean, 1e-12)
	// sample variance of {0.2, 0.4, 0.9} is 0.13
	assert.InDelta(t, 0.3605551, agg.CompletionStdDev, 1e-6)
	assert.Equal(t, 0.9, agg.CompletionBest)
	assert.InDelta(t, 300, agg.TicksMean, 1e-12)
	assert.InDelta(t, 40, agg.DistanceMean, 1e-12)
	assert.Equal(t, map[DeathReason]int{DeathWall: 2, DeathStall: 1}, agg.DeathCounts)
}

func TestAggregateEdgeCases(t *testing.T) {
	empty := Aggregate(nil)
	assert.Zero(t, empty.NumRuns)
	assert.NotNil(t, empty.DeathCounts)

	single := Aggregate([]RunStats{{Completion: 0.7, Ticks: 10, Death: DeathFinish}})
	assert.Equal(t, 0.7, single.CompletionMean)
	assert.Zero(t, single.CompletionStdDev)
	assert.Equal(t, 0.7, single.CompletionBest)
}

func TestDeathReasonString(t *testing.T) {
	for reason, want := range map[DeathReason]string{
		DeathNone: "none", DeathWall: "wall", DeathStall: "stall",
		DeathTimeout: "timeout", DeathFinish: "finish", DeathReason(42): "unknown",
	} {
		assert.Equal(t, want, reason.String())
	}
}
