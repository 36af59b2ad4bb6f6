package nn

import (
	"fmt"
	"math"
)

// Activation maps a neuron's weighted sum to its output.
type Activation func(x float64) float64

// SoftSign is x / (1 + |x|).
func SoftSign(x float64) float64 {
	return x / (1 + math.Abs(x))
}

// Sigmoid saturates to exactly 0 or 1 outside [-10, 10].
func Sigmoid(x float64) float64 {
	switch {
	case x > 10:
		return 1
	case x < -10:
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

// Tanh saturates to exactly -1 or 1 outside [-10, 10].
func Tanh(x float64) float64 {
	switch {
	case x > 10:
		return 1
	case x < -10:
		return -1
	}
	return math.Tanh(x)
}

// ActivationByName resolves a config name. The empty name selects softsign.
func ActivationByName(name string) (Activation, error) {
	switch name {
	case "", "softsign":
		return SoftSign, nil
	case "sigmoid":
		return Sigmoid, nil
	case "tanh":
		return Tanh, nil
	default:
		return nil, fmt.Errorf("nn: unknown activation %q", name)
	}
}
