package ga

import (
	"errors"
	"fmt"

	"neurocars/internal/genotype"
)

// ErrPopulationTooSmall is returned when an operator needs more genotypes than it was given.
var ErrPopulationTooSmall = errors.New("ga: population too small for operator")

func requireSize(pop []*genotype.Genotype, n int, op string) error {
	if len(pop) < n {
		return fmt.Errorf("%w: %s needs %d, got %d", ErrPopulationTooSmall, op, n, len(pop))
	}
	return nil
}

// Summary describes one evaluated generation.
type Summary struct {
	Size           int
	BestFitness    float32
	BestEvaluation float32
	MeanEvaluation float32
	MeanFitness    float32
}

// Summarize computes population statistics. Best is taken over every member
// so the result does not depend on sort order.
func Summarize(pop []*genotype.Genotype) Summary {
	s := Summary{Size: len(pop)}
	if len(pop) == 0 {
		return s
	}

	s.BestFitness = pop[0].Fitness
	s.BestEvaluation = pop[0].Evaluation
	var sumEval, sumFit float32
	for _, g := range pop {
		if g.Fitness > s.BestFitness {
			s.BestFitness = g.Fitness
		}
		if g.Evaluation > s.BestEvaluation {
			s.BestEvaluation = g.Evaluation
		}
		sumEval += g.Evaluation
		sumFit += g.Fitness
	}
	n := float32(len(pop))
	s.MeanEvaluation = sumEval / n
	s.MeanFitness = sumFit / n
	return s
}

// Best returns the member with the highest fitness, or nil for an empty population.
func Best(pop []*genotype.Genotype) *genotype.Genotype {
	if len(pop) == 0 {
		return nil
	}
	best := pop[0]
	for _, g := range pop[1:] {
		if g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}
