package genotype

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g, err := GenerateRandom(500, -1, 1, rng)
	require.NoError(t, err)
	require.Equal(t, 500, g.ParameterCount())

	for i := 0; i < g.ParameterCount(); i++ {
		v := g.At(i)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
	assert.Zero(t, g.Fitness)
	assert.Zero(t, g.Evaluation)
}

func TestGenerateRandomRejectsInvertedRange(t *testing.T) {
	_, err := GenerateRandom(3, 2, 1, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerateRandomRejectsNegativeCount(t *testing.T) {
	g, err := GenerateRandom(-1, 0, 1, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrInvalidCount)
	assert.Nil(t, g)
}

func TestGenerateRandomEmpty(t *testing.T) {
	g, err := GenerateRandom(0, 5, 9, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 0, g.ParameterCount())

	text, err := g.MarshalText()
	require.NoError(t, err)
	assert.Empty(t, text)

	back, err := Parse(string(text))
	require.NoError(t, err)
	assert.Equal(t, 0, back.ParameterCount())
}

func TestParameterCopyDoesNotAlias(t *testing.T) {
	g := New([]float64{1, 2, 3})
	cp := g.ParameterCopy()
	cp[0] = 42

	assert.Equal(t, 1.0, g.At(0))
}

func TestOutOfRangeAccessPanics(t *testing.T) {
	g := New([]float64{1, 2})
	assert.Panics(t, func() { g.At(2) })
	assert.Panics(t, func() { g.Set(-1, 0) })
}

func TestSortByFitnessDescending(t *testing.T) {
	a := &Genotype{Fitness: 0.5}
	b := &Genotype{Fitness: 2}
	c := &Genotype{Fitness: 1}
	d := &Genotype{Fitness: 1}
	pop := []*Genotype{a, b, c, d}

	SortByFitness(pop)

	assert.Same(t, b, pop[0])
	assert.Same(t, c, pop[1])
	assert.Same(t, d, pop[2])
	assert.Same(t, a, pop[3])
}

func TestSerializationRoundTripFloat32Precision(t *testing.T) {
	g := New([]float64{0.1, -1.5, 3.14159265358979, 1e-7, 123456.789})
	text, err := g.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "0.1;-1.5;3.1415927;1e-07;123456.79", string(text))

	back, err := Parse(string(text))
	require.NoError(t, err)
	require.Equal(t, g.ParameterCount(), back.ParameterCount())
	for i := 0; i < g.ParameterCount(); i++ {
		// Only float32 precision survives.
		assert.Equal(t, float32(g.At(i)), float32(back.At(i)), "index %d", i)
		assert.InEpsilon(t, g.At(i), back.At(i), 1e-6)
	}
}

func TestParseRejectsBadToken(t *testing.T) {
	_, err := Parse("0.5;abc;1")
	require.ErrorIs(t, err, ErrParse)

	_, err = Parse("0,5;1")
	require.ErrorIs(t, err, ErrParse)
}

func TestUnmarshalTextResetsScores(t *testing.T) {
	g := &Genotype{Evaluation: 3, Fitness: 2}
	require.NoError(t, g.UnmarshalText([]byte("1;2")))
	assert.Equal(t, 2, g.ParameterCount())
	assert.Zero(t, g.Evaluation)
	assert.Zero(t, g.Fitness)
}

func TestCursorStreamsInOrder(t *testing.T) {
	c := New([]float64{4, 5}).Cursor()
	v, ok := c.Next()
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
	v, ok = c.Next()
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	_, ok = c.Next()
	assert.False(t, ok)
}
