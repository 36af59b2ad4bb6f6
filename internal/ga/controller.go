package ga

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"neurocars/internal/genotype"
)

var (
	// ErrNoSeeds is returned when a controller is built without seed genotypes.
	ErrNoSeeds = errors.New("ga: at least one seed genotype is required")
	// ErrInvalidState is returned when a controller method is called in the wrong state.
	ErrInvalidState = errors.New("ga: invalid controller state")
	// ErrTerminated is returned for any call on a controller that has terminated.
	ErrTerminated = errors.New("ga: controller terminated")
)

// State is a phase of the generational loop.
type State int

const (
	StateUninitialized State = iota
	StateEvaluating
	StateFitnessReady
	StateNextGeneration
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEvaluating:
		return "evaluating"
	case StateFitnessReady:
		return "fitness-ready"
	case StateNextGeneration:
		return "next-generation"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EvaluationFunc starts evaluating a population. It must return without
// waiting; the evaluator later calls EvaluationFinished on the controller.
type EvaluationFunc func(pop []*genotype.Genotype)

// TerminationCriterion reports whether the run should stop. It sees the
// scored and, if enabled, sorted population.
type TerminationCriterion func(generation uint, pop []*genotype.Genotype) bool

// GenerationLimit terminates once the generation counter reaches limit.
func GenerationLimit(limit uint) TerminationCriterion {
	return func(generation uint, _ []*genotype.Genotype) bool {
		return generation >= limit
	}
}

// Operators groups the pluggable strategies of a controller.
type Operators struct {
	Fitness       FitnessCalculator
	Selection     Selector
	Recombination Recombiner
	Mutation      Mutator
}

// DefaultOperators keeps the best three, crosses the top pair and mutates everything.
func DefaultOperators(rng *Rand) Operators {
	return Operators{
		Fitness:       AverageFitness{},
		Selection:     KeepBest{K: DefaultKeep},
		Recombination: SinglePair{SwapProb: DefaultSwapProb, Rand: rng},
		Mutation:      DefaultMutation(rng),
	}
}

type controllerOptions struct {
	ops         Operators
	evaluate    EvaluationFunc
	terminate   TerminationCriterion
	unsorted    bool
	logger      *slog.Logger
	rng         *Rand
	opsProvided bool
}

// Option configures NewController.
type Option func(*controllerOptions)

// WithOperators replaces the default operators. Nil fields keep their defaults.
func WithOperators(ops Operators) Option {
	return func(o *controllerOptions) {
		o.ops = ops
		o.opsProvided = true
	}
}

// WithEvaluation sets the hook that starts evaluating each generation.
func WithEvaluation(fn EvaluationFunc) Option {
	return func(o *controllerOptions) { o.evaluate = fn }
}

// WithTermination sets the termination criterion. Without one the run never ends.
func WithTermination(fn TerminationCriterion) Option {
	return func(o *controllerOptions) { o.terminate = fn }
}

// WithoutSorting skips sorting the population after fitness calculation.
func WithoutSorting() Option {
	return func(o *controllerOptions) { o.unsorted = true }
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *controllerOptions) { o.logger = l }
}

// WithRand sets the random stream used by default operators.
func WithRand(rng *Rand) Option {
	return func(o *controllerOptions) { o.rng = rng }
}

// Controller drives the generational loop: evaluate, score, sort, check
// termination, then select, recombine and mutate into the next generation.
// A terminated controller cannot be restarted; build a new one.
type Controller struct {
	mu sync.Mutex

	ops       Operators
	evaluate  EvaluationFunc
	terminate TerminationCriterion
	sort      bool
	logger    *slog.Logger

	population     []*genotype.Genotype
	populationSize int
	generation     uint
	state          State

	onFitness    []func([]*genotype.Genotype)
	onTerminated []func(*Controller)
}

// NewController builds a controller from seed genotypes. A single seed is
// duplicated so pair-based recombination has two parents.
func NewController(seeds []*genotype.Genotype, populationSize int, opts ...Option) (*Controller, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	if populationSize < 1 {
		return nil, fmt.Errorf("ga: population size must be positive, got %d", populationSize)
	}

	o := controllerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = NewRand(1)
	}
	defaults := DefaultOperators(o.rng)
	if !o.opsProvided {
		o.ops = defaults
	}
	if o.ops.Fitness == nil {
		o.ops.Fitness = defaults.Fitness
	}
	if o.ops.Selection == nil {
		o.ops.Selection = defaults.Selection
	}
	if o.ops.Recombination == nil {
		o.ops.Recombination = defaults.Recombination
	}
	if o.ops.Mutation == nil {
		o.ops.Mutation = defaults.Mutation
	}
	if o.evaluate == nil {
		o.evaluate = func([]*genotype.Genotype) {}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Controller{
		ops:            o.ops,
		evaluate:       o.evaluate,
		terminate:      o.terminate,
		sort:           !o.unsorted,
		logger:         o.logger,
		population:     seedPopulation(seeds),
		populationSize: populationSize,
		generation:     1,
		state:          StateUninitialized,
	}, nil
}

// seedPopulation copies the seed slice and clones any genotype that appears
// twice, so no two agents ever write scores into the same genotype.
func seedPopulation(seeds []*genotype.Genotype) []*genotype.Genotype {
	pop := make([]*genotype.Genotype, 0, len(seeds)+1)
	seen := make(map[*genotype.Genotype]bool, len(seeds))
	for _, g := range seeds {
		if seen[g] {
			g = g.Clone()
		}
		seen[g] = true
		pop = append(pop, g)
	}
	if len(pop) == 1 {
		pop = append(pop, pop[0].Clone())
	}
	return pop
}

// OnFitnessReady registers fn to receive the scored population before the
// controller proceeds. fn may inspect the population but must not keep the slice.
func (c *Controller) OnFitnessReady(fn func(pop []*genotype.Genotype)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFitness = append(c.onFitness, fn)
}

// OnTerminated registers fn to run once when the termination criterion is met.
func (c *Controller) OnTerminated(fn func(*Controller)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTerminated = append(c.onTerminated, fn)
}

// Generation returns the current generation, starting at 1.
func (c *Controller) Generation() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PopulationSize returns the configured size of every generated population.
func (c *Controller) PopulationSize() int {
	return c.populationSize
}

// Population returns a copy of the current population slice. The genotypes are shared.
func (c *Controller) Population() []*genotype.Genotype {
	c.mu.Lock()
	defer c.mu.Unlock()
	pop := make([]*genotype.Genotype, len(c.population))
	copy(pop, c.population)
	return pop
}

// Start runs one recombination and mutation pass over the seeds to create the
// first generation and hands it to the evaluation hook.
func (c *Controller) Start() error {
	c.mu.Lock()
	if err := c.expect(StateUninitialized); err != nil {
		c.mu.Unlock()
		return err
	}

	initial, err := c.ops.Recombination.Recombine(c.population, c.populationSize)
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		return fmt.Errorf("initial recombination: %w", err)
	}
	c.ops.Mutation.Mutate(initial)
	c.population = initial
	pop := c.beginEvaluation()
	c.mu.Unlock()

	c.logger.Info("evolution started", "population", len(pop), "generation", 1)
	c.evaluate(pop)
	return nil
}

// StartWithoutInitialization evaluates the seed population as it is.
func (c *Controller) StartWithoutInitialization() error {
	c.mu.Lock()
	if err := c.expect(StateUninitialized); err != nil {
		c.mu.Unlock()
		return err
	}
	pop := c.beginEvaluation()
	c.mu.Unlock()

	c.logger.Info("evolution resumed", "population", len(pop), "generation", 1)
	c.evaluate(pop)
	return nil
}

// EvaluationFinished is called once every individual of the current
// generation has stopped accumulating evaluation. It scores the population,
// notifies observers, and either terminates or starts the next generation.
func (c *Controller) EvaluationFinished() error {
	c.mu.Lock()
	if err := c.expect(StateEvaluating); err != nil {
		c.mu.Unlock()
		return err
	}

	c.ops.Fitness.CalculateFitness(c.population)
	if c.sort {
		genotype.SortByFitness(c.population)
	}
	c.state = StateFitnessReady
	pop := c.population
	generation := c.generation
	fitnessHandlers := append([]func([]*genotype.Genotype){}, c.onFitness...)
	c.mu.Unlock()

	for _, fn := range fitnessHandlers {
		fn(pop)
	}

	if c.terminate != nil && c.terminate(generation, pop) {
		c.mu.Lock()
		c.state = StateTerminated
		handlers := append([]func(*Controller){}, c.onTerminated...)
		c.mu.Unlock()

		c.logger.Info("evolution terminated", "generation", generation)
		for _, fn := range handlers {
			fn(c)
		}
		return nil
	}

	c.mu.Lock()
	c.state = StateNextGeneration
	next, err := c.breed(pop)
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		return fmt.Errorf("generation %d: %w", generation, err)
	}
	c.population = next
	c.generation++
	generation = c.generation
	evalPop := c.beginEvaluation()
	c.mu.Unlock()

	c.logger.Debug("generation bred", "generation", generation, "population", len(evalPop))
	c.evaluate(evalPop)
	return nil
}

func (c *Controller) breed(pop []*genotype.Genotype) ([]*genotype.Genotype, error) {
	intermediate, err := c.ops.Selection.Select(pop)
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}
	next, err := c.ops.Recombination.Recombine(intermediate, c.populationSize)
	if err != nil {
		return nil, fmt.Errorf("recombination: %w", err)
	}
	c.ops.Mutation.Mutate(next)
	return next, nil
}

// beginEvaluation moves to Evaluating and returns a copy of the population for the hook.
// Callers hold c.mu.
func (c *Controller) beginEvaluation() []*genotype.Genotype {
	c.state = StateEvaluating
	pop := make([]*genotype.Genotype, len(c.population))
	copy(pop, c.population)
	return pop
}

// expect checks the controller is in want. Callers hold c.mu.
func (c *Controller) expect(want State) error {
	switch c.state {
	case want:
		return nil
	case StateTerminated:
		return ErrTerminated
	default:
		return fmt.Errorf("%w: in %s, want %s", ErrInvalidState, c.state, want)
	}
}
