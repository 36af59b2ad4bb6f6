package nn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShortStream is returned when a parameter stream ends before every weight is set.
	ErrShortStream = errors.New("nn: parameter stream exhausted")
	// ErrInputSize is returned when Forward receives the wrong number of inputs.
	ErrInputSize = errors.New("nn: input size does not match input layer")
)

// ParamSource streams parameters in weight-loading order.
type ParamSource interface {
	Next() (float64, bool)
}

// SliceSource adapts a slice to ParamSource.
type SliceSource struct {
	Values []float64
	pos    int
}

// Next implements ParamSource.
func (s *SliceSource) Next() (float64, bool) {
	if s.pos >= len(s.Values) {
		return 0, false
	}
	v := s.Values[s.pos]
	s.pos++
	return v, true
}

// layer connects in neurons to out neurons. weights[i][j] is the weight from
// input neuron i to output neuron j.
type layer struct {
	in, out int
	weights [][]float64
	bias    []float64
}

func newLayer(in, out int) *layer {
	l := &layer{
		in:      in,
		out:     out,
		weights: make([][]float64, in),
		bias:    make([]float64, out),
	}
	for i := range l.weights {
		l.weights[i] = make([]float64, out)
	}
	return l
}

func (l *layer) clone() *layer {
	c := newLayer(l.in, l.out)
	for i := range l.weights {
		copy(c.weights[i], l.weights[i])
	}
	copy(c.bias, l.bias)
	return c
}

// Network is a fully connected feedforward network.
type Network struct {
	topology   Topology
	activation Activation
	layers     []*layer
}

// New creates a network with all weights at zero. A nil activation selects softsign.
func New(topology Topology, activation Activation) (*Network, error) {
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	if activation == nil {
		activation = SoftSign
	}

	n := &Network{
		topology:   topology.Clone(),
		activation: activation,
		layers:     make([]*layer, len(topology)-1),
	}
	for i := range n.layers {
		n.layers[i] = newLayer(int(topology[i]), int(topology[i+1]))
	}
	return n, nil
}

// Topology returns a copy of the network topology.
func (n *Network) Topology() Topology {
	return n.topology.Clone()
}

// WeightCount returns the number of parameters LoadWeights consumes.
func (n *Network) WeightCount() int {
	return n.topology.WeightCount()
}

// LoadWeights reads exactly WeightCount values. For each layer it reads the
// outgoing weights of input neuron 0, then neuron 1, and so on, followed by the
// layer's bias values.
func (n *Network) LoadWeights(src ParamSource) error {
	read := 0
	next := func() (float64, error) {
		v, ok := src.Next()
		if !ok {
			return 0, fmt.Errorf("%w after %d of %d values", ErrShortStream, read, n.WeightCount())
		}
		read++
		return v, nil
	}

	for _, l := range n.layers {
		for i := 0; i < l.in; i++ {
			for j := 0; j < l.out; j++ {
				v, err := next()
				if err != nil {
					return err
				}
				l.weights[i][j] = v
			}
		}
		for j := 0; j < l.out; j++ {
			v, err := next()
			if err != nil {
				return err
			}
			l.bias[j] = v
		}
	}
	return nil
}

// Weights flattens the network in LoadWeights order.
func (n *Network) Weights() []float64 {
	flat := make([]float64, 0, n.WeightCount())
	for _, l := range n.layers {
		for i := range l.weights {
			flat = append(flat, l.weights[i]...)
		}
		flat = append(flat, l.bias...)
	}
	return flat
}

// Forward propagates input through every layer and returns a fresh output slice.
func (n *Network) Forward(input []float64) ([]float64, error) {
	if len(input) != n.topology.Inputs() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(input), n.topology.Inputs())
	}

	values := input
	for _, l := range n.layers {
		sums := make([]float64, l.out)
		for j := 0; j < l.out; j++ {
			sum := l.bias[j]
			for i := 0; i < l.in; i++ {
				sum += values[i] * l.weights[i][j]
			}
			sums[j] = n.activation(sum)
		}
		values = sums
	}
	return values, nil
}

// DeepCopy returns a network with the same topology, activation and weights
// but independent storage.
func (n *Network) DeepCopy() *Network {
	c := &Network{
		topology:   n.topology.Clone(),
		activation: n.activation,
		layers:     make([]*layer, len(n.layers)),
	}
	for i, l := range n.layers {
		c.layers[i] = l.clone()
	}
	return c
}

// TopologyCopy returns a network with the same topology and activation and zero weights.
func (n *Network) TopologyCopy() *Network {
	c := &Network{
		topology:   n.topology.Clone(),
		activation: n.activation,
		layers:     make([]*layer, len(n.layers)),
	}
	for i, l := range n.layers {
		c.layers[i] = newLayer(l.in, l.out)
	}
	return c
}

func (n *Network) String() string {
	var b strings.Builder
	for k, l := range n.layers {
		fmt.Fprintf(&b, "Layer %d:\n", k)
		for i := range l.weights {
			for j, w := range l.weights[i] {
				fmt.Fprintf(&b, "[%d,%d]: %g ", i, j, w)
			}
			b.WriteString("\n")
		}
		for j, w := range l.bias {
			fmt.Fprintf(&b, "[bias,%d]: %g ", j, w)
		}
		b.WriteString("\n")
	}
	return b.String()
}
