package agent

import (
	"errors"
	"fmt"
	"sync"

	"neurocars/internal/genotype"
	"neurocars/internal/nn"
)

// ErrWeightMismatch is returned when a genotype cannot parameterize the requested topology.
var ErrWeightMismatch = errors.New("agent: genotype parameter count does not match topology weight count")

// Agent binds one genotype to the network built from it.
type Agent struct {
	genotype *genotype.Genotype
	net      *nn.Network

	mu      sync.Mutex
	alive   bool
	onDeath []func(*Agent)
}

type options struct {
	activation nn.Activation
}

// Option configures New.
type Option func(*options)

// WithActivation selects the activation of every layer. Softsign is the default.
func WithActivation(act nn.Activation) Option {
	return func(o *options) { o.activation = act }
}

// New builds a network for topology and loads g's parameters into it.
// The agent holds g by reference and starts out dead; call Reset before a run.
func New(g *genotype.Genotype, topology nn.Topology, opts ...Option) (*Agent, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	net, err := nn.New(topology, o.activation)
	if err != nil {
		return nil, err
	}
	if net.WeightCount() != g.ParameterCount() {
		return nil, fmt.Errorf("%w: topology %s needs %d, genotype has %d",
			ErrWeightMismatch, topology, net.WeightCount(), g.ParameterCount())
	}
	if err := net.LoadWeights(g.Cursor()); err != nil {
		return nil, err
	}

	return &Agent{genotype: g, net: net}, nil
}

// Genotype returns the genotype this agent was built from.
func (a *Agent) Genotype() *genotype.Genotype {
	return a.genotype
}

// Process runs the network on input. It only reads agent state.
func (a *Agent) Process(input []float64) ([]float64, error) {
	return a.net.Forward(input)
}

// OnDeath registers fn to run on every alive-to-dead transition.
func (a *Agent) OnDeath(fn func(*Agent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onDeath = append(a.onDeath, fn)
}

// IsAlive reports whether the agent is still participating in the run.
func (a *Agent) IsAlive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alive
}

// Reset zeroes the genotype's scores and brings the agent back to life.
func (a *Agent) Reset() {
	a.genotype.ResetScores()
	a.setAlive(true)
}

// Kill marks the agent dead. Killing a dead agent does nothing.
func (a *Agent) Kill() {
	a.setAlive(false)
}

func (a *Agent) setAlive(alive bool) {
	a.mu.Lock()
	if a.alive == alive {
		a.mu.Unlock()
		return
	}
	a.alive = alive
	var handlers []func(*Agent)
	if !alive {
		handlers = append(handlers, a.onDeath...)
	}
	a.mu.Unlock()

	for _, fn := range handlers {
		fn(a)
	}
}

// Less orders agents by their genotypes' fitness, highest first.
func Less(a, b *Agent) bool {
	return genotype.Less(a.genotype, b.genotype)
}
