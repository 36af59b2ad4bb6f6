package nn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTopology is returned for topologies with fewer than two layers or an empty layer.
	ErrInvalidTopology = errors.New("nn: invalid topology")
	// ErrParseTopology is returned when a persisted topology cannot be decoded.
	ErrParseTopology = errors.New("nn: invalid topology serialization")
)

// Topology lists neuron counts from the input layer to the output layer.
type Topology []uint

// Validate checks there are at least two layers and none is empty.
func (t Topology) Validate() error {
	if len(t) < 2 {
		return fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidTopology, len(t))
	}
	for i, n := range t {
		if n == 0 {
			return fmt.Errorf("%w: layer %d has no neurons", ErrInvalidTopology, i)
		}
	}
	return nil
}

// WeightCount returns the number of parameters a network with this topology needs.
// Every layer pair contributes (in+1)*out values, the +1 being the bias unit.
func (t Topology) WeightCount() int {
	count := 0
	for i := 0; i+1 < len(t); i++ {
		count += (int(t[i]) + 1) * int(t[i+1])
	}
	return count
}

// Inputs returns the size of the input layer.
func (t Topology) Inputs() int {
	if len(t) == 0 {
		return 0
	}
	return int(t[0])
}

// Outputs returns the size of the output layer.
func (t Topology) Outputs() int {
	if len(t) == 0 {
		return 0
	}
	return int(t[len(t)-1])
}

// String encodes the topology as ';'-joined sizes, e.g. "5;4;4;2".
func (t Topology) String() string {
	parts := make([]string, len(t))
	for i, n := range t {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, ";")
}

// MarshalText implements encoding.TextMarshaler.
func (t Topology) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Topology) UnmarshalText(text []byte) error {
	parsed, err := ParseTopology(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTopology decodes the format produced by String.
func ParseTopology(raw string) (Topology, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrParseTopology)
	}
	tokens := strings.Split(raw, ";")
	t := make(Topology, len(tokens))
	for i, tok := range tokens {
		n, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d %q", ErrParseTopology, i, tok)
		}
		t[i] = uint(n)
	}
	return t, nil
}

// Clone returns a copy of t.
func (t Topology) Clone() Topology {
	dst := make(Topology, len(t))
	copy(dst, t)
	return dst
}
