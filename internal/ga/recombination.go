package ga

import (
	"neurocars/internal/genotype"
)

// Recombiner grows the intermediate population into a new population of size n.
type Recombiner interface {
	Recombine(intermediate []*genotype.Genotype, n int) ([]*genotype.Genotype, error)
}

// SinglePair repeatedly crosses intermediate[0] with intermediate[1].
type SinglePair struct {
	SwapProb float64
	Rand     *Rand
}

// Recombine implements Recombiner.
func (r SinglePair) Recombine(intermediate []*genotype.Genotype, n int) ([]*genotype.Genotype, error) {
	if err := requireSize(intermediate, 2, "single-pair recombination"); err != nil {
		return nil, err
	}

	out := make([]*genotype.Genotype, 0, n)
	for len(out) < n {
		c1, c2, err := Crossover(intermediate[0], intermediate[1], r.SwapProb, r.Rand)
		if err != nil {
			return nil, err
		}
		out = appendOffspring(out, n, c1, c2)
	}
	return out, nil
}

// RandomPair keeps intermediate[0] and intermediate[1] unchanged, then crosses
// pairs of distinct random members until the population reaches n.
type RandomPair struct {
	SwapProb float64
	Rand     *Rand
}

// Recombine implements Recombiner.
func (r RandomPair) Recombine(intermediate []*genotype.Genotype, n int) ([]*genotype.Genotype, error) {
	if err := requireSize(intermediate, 2, "random-pair recombination"); err != nil {
		return nil, err
	}

	out := make([]*genotype.Genotype, 0, n)
	out = append(out, intermediate[0])
	if n > 1 {
		out = append(out, intermediate[1])
	}

	size := len(intermediate)
	for len(out) < n {
		i := r.Rand.Intn(size)
		// Draw the second index from the remaining size-1 slots so it never equals i.
		j := r.Rand.Intn(size - 1)
		if j >= i {
			j++
		}

		c1, c2, err := Crossover(intermediate[i], intermediate[j], r.SwapProb, r.Rand)
		if err != nil {
			return nil, err
		}
		out = appendOffspring(out, n, c1, c2)
	}
	return out, nil
}

func appendOffspring(out []*genotype.Genotype, n int, c1, c2 *genotype.Genotype) []*genotype.Genotype {
	out = append(out, c1)
	if len(out) < n {
		out = append(out, c2)
	}
	return out
}
