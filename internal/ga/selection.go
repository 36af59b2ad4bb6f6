package ga

import (
	"math"

	"neurocars/internal/genotype"
)

// Selector builds the intermediate population from a population sorted by fitness.
type Selector interface {
	Select(pop []*genotype.Genotype) ([]*genotype.Genotype, error)
}

// DefaultKeep is the number of genotypes KeepBest retains when K is unset.
const DefaultKeep = 3

// KeepBest returns the first K genotypes as they are, without copying.
type KeepBest struct {
	K int
}

// Select implements Selector.
func (s KeepBest) Select(pop []*genotype.Genotype) ([]*genotype.Genotype, error) {
	k := s.K
	if k <= 0 {
		k = DefaultKeep
	}
	if err := requireSize(pop, k, "keep-best selection"); err != nil {
		return nil, err
	}
	out := make([]*genotype.Genotype, k)
	copy(out, pop[:k])
	return out, nil
}

// RemainderStochasticSampling copies each genotype floor(fitness) times, then
// adds one more copy of every genotype with probability equal to the fractional
// part of its fitness. Iteration follows population order.
type RemainderStochasticSampling struct {
	Rand *Rand
}

// Select implements Selector.
func (s RemainderStochasticSampling) Select(pop []*genotype.Genotype) ([]*genotype.Genotype, error) {
	var out []*genotype.Genotype

	for _, g := range pop {
		if !(g.Fitness >= 1) {
			continue
		}
		copies := int(math.Floor(float64(g.Fitness)))
		for i := 0; i < copies; i++ {
			out = append(out, g.Clone())
		}
	}

	for _, g := range pop {
		whole := math.Floor(float64(g.Fitness))
		remainder := float64(g.Fitness) - whole
		if s.Rand.Float64() < remainder {
			out = append(out, g.Clone())
		}
	}

	// A population with no fitness mass samples nothing; fall back to copying it whole.
	if len(out) == 0 {
		for _, g := range pop {
			out = append(out, g.Clone())
		}
	}
	return out, nil
}
