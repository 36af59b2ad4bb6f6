package ga

import "neurocars/internal/genotype"

// FitnessCalculator turns the raw evaluations of a population into fitness values.
type FitnessCalculator interface {
	CalculateFitness(pop []*genotype.Genotype)
}

// AverageFitness sets fitness = evaluation / mean evaluation. When the mean is
// zero every genotype gets fitness 0 instead of NaN or Inf.
type AverageFitness struct{}

// CalculateFitness implements FitnessCalculator.
func (AverageFitness) CalculateFitness(pop []*genotype.Genotype) {
	if len(pop) == 0 {
		return
	}

	var total float32
	for _, g := range pop {
		total += g.Evaluation
	}
	mean := total / float32(len(pop))

	for _, g := range pop {
		if mean == 0 {
			g.Fitness = 0
			continue
		}
		g.Fitness = g.Evaluation / mean
	}
}
