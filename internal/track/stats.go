package track

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DeathReason indicates how a run ended.
type DeathReason int

const (
	DeathNone    DeathReason = iota
	DeathWall                // touched a wall
	DeathStall               // no checkpoint for too long
	DeathTimeout             // tick cap reached
	DeathFinish              // captured the last checkpoint
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathWall:
		return "wall"
	case DeathStall:
		return "stall"
	case DeathTimeout:
		return "timeout"
	case DeathFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// RunStats captures the outcome of one car's run.
type RunStats struct {
	Completion  float64     // share of the course completed, 0..1
	Checkpoints int         // checkpoints captured
	Ticks       int         // ticks survived
	Distance    float64     // distance driven
	Death       DeathReason // how the run ended
}

// AggregatedStats holds statistics across a generation of runs.
type AggregatedStats struct {
	CompletionMean   float64
	CompletionStdDev float64 // sample standard deviation, 0 for fewer than two runs
	CompletionBest   float64
	TicksMean        float64
	DistanceMean     float64
	DeathCounts      map[DeathReason]int
	NumRuns          int
}

// Aggregate computes statistics from multiple runs.
func Aggregate(runs []RunStats) AggregatedStats {
	agg := AggregatedStats{DeathCounts: make(map[DeathReason]int)}
	n := len(runs)
	if n == 0 {
		return agg
	}
	agg.NumRuns = n

	completion := make([]float64, n)
	ticks := make([]float64, n)
	distance := make([]float64, n)
	for i, r := range runs {
		completion[i] = r.Completion
		ticks[i] = float64(r.Ticks)
		distance[i] = r.Distance
		agg.DeathCounts[r.Death]++
	}

	agg.CompletionBest = floats.Max(completion)
	if n > 1 {
		agg.CompletionMean, agg.CompletionStdDev = stat.MeanStdDev(completion, nil)
	} else {
		agg.CompletionMean = completion[0]
	}
	agg.TicksMean = stat.Mean(ticks, nil)
	agg.DistanceMean = stat.Mean(distance, nil)
	return agg
}
