package models

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"neurocars/internal/genotype"
	"neurocars/internal/nn"
)

// Range of the parameters of freshly generated models.
const (
	DefaultParamMin = -1.0
	DefaultParamMax = 1.0
)

// ErrModelFormat is returned for model text that is not a genotype line followed by a 0/1 line.
var ErrModelFormat = errors.New("models: malformed model")

// Model is a named, persisted genotype that seeds evolution.
type Model struct {
	Name     string
	Active   bool
	Genotype *genotype.Genotype
}

// Generate creates an active model with random parameters sized for topology.
func Generate(name string, topology nn.Topology, rng genotype.Source) (Model, error) {
	if err := topology.Validate(); err != nil {
		return Model{}, err
	}
	g, err := genotype.GenerateRandom(topology.WeightCount(), DefaultParamMin, DefaultParamMax, rng)
	if err != nil {
		return Model{}, err
	}
	return Model{Name: name, Active: true, Genotype: g}, nil
}

// MarshalText encodes the genotype on the first line and the active flag on the second.
func (m Model) MarshalText() ([]byte, error) {
	var b bytes.Buffer
	if m.Genotype != nil {
		b.WriteString(m.Genotype.String())
	}
	b.WriteByte('\n')
	if m.Active {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
	return b.Bytes(), nil
}

// UnmarshalText decodes the two-line model format. Name is left untouched.
func (m *Model) UnmarshalText(text []byte) error {
	lines := strings.Split(strings.ReplaceAll(string(text), "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return fmt.Errorf("%w: want 2 lines, got %d", ErrModelFormat, len(lines))
	}
	g, err := genotype.Parse(lines[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelFormat, err)
	}
	m.Genotype = g
	m.Active = strings.TrimSpace(lines[1]) == "1"
	return nil
}

// Clone returns a copy with an independent genotype.
func (m Model) Clone() Model {
	if m.Genotype != nil {
		m.Genotype = m.Genotype.Clone()
	}
	return m
}
