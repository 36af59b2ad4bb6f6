package ga

import (
	"errors"
	"fmt"

	"neurocars/internal/genotype"
)

// ErrLengthMismatch is returned when parents have different parameter counts.
var ErrLengthMismatch = errors.New("ga: parents have different parameter counts")

// DefaultSwapProb is the per-parameter swap probability of uniform crossover.
const DefaultSwapProb = 0.6

// Crossover performs uniform (complete) crossover. For each index the parents'
// values are swapped between the two children with probability swapProb.
// Children are new genotypes with zero scores.
func Crossover(p1, p2 *genotype.Genotype, swapProb float64, rng *Rand) (*genotype.Genotype, *genotype.Genotype, error) {
	size := p1.ParameterCount()
	if size != p2.ParameterCount() {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, size, p2.ParameterCount())
	}

	c1 := make([]float64, size)
	c2 := make([]float64, size)
	for i := 0; i < size; i++ {
		if rng.Float64() < swapProb {
			c1[i] = p2.At(i)
			c2[i] = p1.At(i)
		} else {
			c1[i] = p1.At(i)
			c2[i] = p2.At(i)
		}
	}

	return genotype.New(c1), genotype.New(c2), nil
}
