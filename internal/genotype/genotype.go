package genotype

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange is returned when a random range has min > max.
	ErrInvalidRange = errors.New("genotype: minimum value may not exceed maximum value")
	// ErrParse is returned when a serialized genotype contains a token that is not a float.
	ErrParse = errors.New("genotype: invalid serialization")
	// ErrInvalidCount is returned when a negative parameter count is requested.
	ErrInvalidCount = errors.New("genotype: parameter count may not be negative")
)

const separator = ";"

// Source is the random stream used to draw parameters.
type Source interface {
	Float64() float64
}

// Genotype is one member of a population: a fixed-length parameter vector
// plus the raw evaluation reported by the simulation and the fitness derived from it.
type Genotype struct {
	Evaluation float32
	Fitness    float32

	params []float64
}

// New wraps params without copying them. Scores start at zero.
func New(params []float64) *Genotype {
	if params == nil {
		params = []float64{}
	}
	return &Genotype{params: params}
}

// GenerateRandom creates a genotype with count parameters drawn uniformly from [min, max).
func GenerateRandom(count int, min, max float64, rng Source) (*Genotype, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if min > max {
		return nil, fmt.Errorf("%w: [%g, %g)", ErrInvalidRange, min, max)
	}
	g := New(make([]float64, count))
	g.randomize(min, max, rng)
	return g, nil
}

func (g *Genotype) randomize(min, max float64, rng Source) {
	span := max - min
	for i := range g.params {
		g.params[i] = rng.Float64()*span + min
	}
}

// ParameterCount returns the length of the parameter vector.
func (g *Genotype) ParameterCount() int {
	return len(g.params)
}

// At returns parameter i. Out-of-range indices panic.
func (g *Genotype) At(i int) float64 {
	return g.params[i]
}

// Set assigns parameter i. Out-of-range indices panic.
func (g *Genotype) Set(i int, v float64) {
	g.params[i] = v
}

// ParameterCopy returns a copy of the parameter vector so offspring never alias parent storage.
func (g *Genotype) ParameterCopy() []float64 {
	dst := make([]float64, len(g.params))
	copy(dst, g.params)
	return dst
}

// Clone returns an independent genotype with the same parameters and zeroed scores.
func (g *Genotype) Clone() *Genotype {
	return New(g.ParameterCopy())
}

// ResetScores zeroes evaluation and fitness.
func (g *Genotype) ResetScores() {
	g.Evaluation = 0
	g.Fitness = 0
}

// Cursor returns a forward-only reader over the parameters.
func (g *Genotype) Cursor() *Cursor {
	return &Cursor{params: g.params}
}

// Cursor streams parameters in order.
type Cursor struct {
	params []float64
	pos    int
}

// Next returns the next parameter, or false once the vector is exhausted.
func (c *Cursor) Next() (float64, bool) {
	if c.pos >= len(c.params) {
		return 0, false
	}
	v := c.params[c.pos]
	c.pos++
	return v, true
}

// Less orders genotypes by fitness, highest first.
func Less(a, b *Genotype) bool {
	return a.Fitness > b.Fitness
}

// SortByFitness sorts pop in place, highest fitness first. Equal fitness keeps insertion order.
func SortByFitness(pop []*Genotype) {
	sort.SliceStable(pop, func(i, j int) bool {
		return Less(pop[i], pop[j])
	})
}

// MarshalText encodes the parameters as ';'-joined decimals. Values are written at
// float32 precision, so a round trip loses everything past the seventh significant digit.
func (g *Genotype) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText replaces the parameter vector with the decoded one and zeroes scores.
func (g *Genotype) UnmarshalText(text []byte) error {
	params, err := parseParams(string(text))
	if err != nil {
		return err
	}
	g.params = params
	g.ResetScores()
	return nil
}

func (g *Genotype) String() string {
	var b strings.Builder
	for i, p := range g.params {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(strconv.FormatFloat(float64(float32(p)), 'g', -1, 32))
	}
	return b.String()
}

// Parse decodes the text produced by MarshalText.
func Parse(raw string) (*Genotype, error) {
	params, err := parseParams(raw)
	if err != nil {
		return nil, err
	}
	return New(params), nil
}

func parseParams(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []float64{}, nil
	}
	tokens := strings.Split(raw, separator)
	params := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q", ErrParse, i, tok)
		}
		params[i] = v
	}
	return params, nil
}
