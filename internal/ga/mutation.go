package ga

import "neurocars/internal/genotype"

// Default mutation parameters.
const (
	DefaultMutationProb    = 0.3
	DefaultMutationAmount  = 2.0
	DefaultMutationPercent = 1.0
)

// Mutator mutates a new population in place.
type Mutator interface {
	Mutate(pop []*genotype.Genotype)
}

// UniformMutation touches each genotype from index SkipFirst on with probability
// Percent. A touched genotype has each parameter shifted, with probability Prob,
// by a uniform amount in [-Amount, Amount].
type UniformMutation struct {
	Percent   float64
	Prob      float64
	Amount    float64
	SkipFirst int
	Rand      *Rand
}

// Mutate implements Mutator.
func (m UniformMutation) Mutate(pop []*genotype.Genotype) {
	for i := m.SkipFirst; i < len(pop); i++ {
		if m.Rand.Float64() < m.Percent {
			MutateGenotype(pop[i], m.Prob, m.Amount, m.Rand)
		}
	}
}

// MutateGenotype shifts each parameter of g with probability prob by a uniform
// amount in [-amount, amount].
func MutateGenotype(g *genotype.Genotype, prob, amount float64, rng *Rand) {
	for i := 0; i < g.ParameterCount(); i++ {
		if rng.Float64() < prob {
			g.Set(i, g.At(i)+rng.Float64()*amount*2-amount)
		}
	}
}

// DefaultMutation mutates every genotype with the default parameters.
func DefaultMutation(rng *Rand) UniformMutation {
	return UniformMutation{
		Percent: DefaultMutationPercent,
		Prob:    DefaultMutationProb,
		Amount:  DefaultMutationAmount,
		Rand:    rng,
	}
}

// SkipBestTwoMutation leaves the first two genotypes untouched. It pairs with
// RandomPair, which places the two best parents there.
func SkipBestTwoMutation(rng *Rand) UniformMutation {
	m := DefaultMutation(rng)
	m.SkipFirst = 2
	return m
}
