package eval

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"neurocars/internal/agent"
	"neurocars/internal/genotype"
	"neurocars/internal/logging"
	"neurocars/internal/nn"
	"neurocars/internal/track"
)

// Evaluator drives one car per genotype around the course and reports when
// every car has died.
type Evaluator struct {
	sim        *track.Simulation
	topology   nn.Topology
	activation nn.Activation
	workers    int
	logger     *slog.Logger

	mu        sync.Mutex
	onAllDied []func()
}

// Option configures NewEvaluator.
type Option func(*Evaluator)

// WithWorkers bounds how many cars are simulated at once. Zero means NumCPU.
func WithWorkers(n int) Option {
	return func(e *Evaluator) { e.workers = n }
}

// WithActivation selects the controller activation.
func WithActivation(act nn.Activation) Option {
	return func(e *Evaluator) { e.activation = act }
}

// WithLogger sets the evaluator logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator creates an evaluator building controllers of the given topology
func NewEvaluator(sim *track.Simulation, topology nn.Topology, opts ...Option) *Evaluator {
	e := &Evaluator{
		sim:      sim,
		topology: topology.Clone(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	return e
}

// OnAllDied registers fn to run once per evaluation, when the last car dies.
func (e *Evaluator) OnAllDied(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAllDied = append(e.onAllDied, fn)
}

// Result holds the per-genotype run statistics of one evaluation.
type Result struct {
	Runs      []track.RunStats
	Aggregate track.AggregatedStats
}

// Evaluate runs every genotype on the course and blocks until all cars have
// died. Completion is written to each genotype's evaluation. The all-died
// observers have fired by the time Evaluate returns, even on error.
func (e *Evaluator) Evaluate(ctx context.Context, pop []*genotype.Genotype) (Result, error) {
	var once sync.Once
	allDied := func() { once.Do(e.notifyAllDied) }

	agents := make([]*agent.Agent, len(pop))
	for i, g := range pop {
		a, err := agent.New(g, e.topology, agent.WithActivation(e.activation))
		if err != nil {
			allDied()
			return Result{}, fmt.Errorf("building agent %d: %w", i, err)
		}
		agents[i] = a
	}
	if len(agents) == 0 {
		allDied()
		return Result{Aggregate: track.Aggregate(nil)}, nil
	}

	var (
		aliveMu sync.Mutex
		alive   = len(agents)
	)
	for _, a := range agents {
		a.OnDeath(func(*agent.Agent) {
			aliveMu.Lock()
			alive--
			last := alive == 0
			aliveMu.Unlock()
			if last {
				allDied()
			}
		})
	}

	runs := make([]track.RunStats, len(agents))
	p := pool.New().WithMaxGoroutines(e.workers).WithContext(ctx)
	for i, a := range agents {
		i, a := i, a
		p.Go(func(ctx context.Context) error {
			stats, err := e.sim.Run(ctx, a)
			runs[i] = stats
			if err != nil {
				return fmt.Errorf("agent %d: %w", i, err)
			}
			return nil
		})
	}
	err := p.Wait()

	// Cars the pool skipped after a failure never die.
	allDied()

	result := Result{Runs: runs, Aggregate: track.Aggregate(runs)}
	e.logger.Debug("population evaluated",
		"agents", len(agents),
		"best_completion", result.Aggregate.CompletionBest,
		"mean_completion", result.Aggregate.CompletionMean,
		"completion_stddev", result.Aggregate.CompletionStdDev)
	return result, err
}

func (e *Evaluator) notifyAllDied() {
	e.mu.Lock()
	handlers := append([]func(){}, e.onAllDied...)
	e.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
