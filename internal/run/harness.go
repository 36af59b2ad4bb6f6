package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"neurocars/internal/config"
	"neurocars/internal/eval"
	"neurocars/internal/ga"
	"neurocars/internal/genotype"
	"neurocars/internal/logging"
	"neurocars/internal/metrics"
	"neurocars/internal/models"
	"neurocars/internal/track"
)

// ErrInvalidActiveModels is returned when the number of active models cannot seed a run.
var ErrInvalidActiveModels = errors.New("run: one or two models must be active")

// Harness runs the GA against the track simulation, restarting with a fresh
// controller every time a run reaches its generation limit.
type Harness struct {
	cfg       *config.Config
	manager   *models.Manager
	evaluator *eval.Evaluator
	rng       *ga.Rand
	metrics   *metrics.Metrics
	runLog    *logging.Logger
	logger    *slog.Logger
	newRunID  func() string

	pending chan []*genotype.Genotype
	allDied chan struct{}

	runID      string
	controller *ga.Controller
	terminated bool
	lastRuns   track.AggregatedStats
	summary    Summary
}

// Summary describes what a call to Run did.
type Summary struct {
	Generations     int
	Restarts        int
	AgentsEvaluated int
	ModelUpdates    int
	RunIDs          []string
	Elapsed         time.Duration

	// Champion is the genotype with the highest completion seen in any run.
	Champion           *genotype.Genotype
	ChampionRunID      string
	ChampionGeneration uint
}

// Option configures New.
type Option func(*Harness)

// WithMetrics publishes progress to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harness) { h.metrics = m }
}

// WithRunLogger writes per-generation summaries to l.
func WithRunLogger(l *logging.Logger) Option {
	return func(h *Harness) { h.runLog = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(fn func() string) Option {
	return func(h *Harness) { h.newRunID = fn }
}

// New wires a harness. The evaluator must build controllers for the manager's topology.
func New(cfg *config.Config, manager *models.Manager, evaluator *eval.Evaluator, rng *ga.Rand, opts ...Option) *Harness {
	h := &Harness{
		cfg:       cfg,
		manager:   manager,
		evaluator: evaluator,
		rng:       rng,
		logger:    logging.Discard(),
		newRunID:  uuid.NewString,
		pending:   make(chan []*genotype.Genotype, 1),
		allDied:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	evaluator.OnAllDied(func() {
		select {
		case h.allDied <- struct{}{}:
		default:
		}
	})
	return h
}

// Run evolves until maxGenerations generations have been scored across all
// runs, or ctx ends. Zero means no generation limit.
func (h *Harness) Run(ctx context.Context, maxGenerations int) (Summary, error) {
	start := time.Now()
	h.summary = Summary{}
	finish := func(err error) (Summary, error) {
		h.summary.Elapsed = time.Since(start)
		return h.summary, err
	}

	// A previous Run may have stopped with a population queued.
	h.drain()
	if err := h.startRun(ctx, h.cfg.Models.LoadFromFile); err != nil {
		return finish(err)
	}

	for maxGenerations <= 0 || h.summary.Generations < maxGenerations {
		if h.terminated {
			if err := h.restart(ctx); err != nil {
				return finish(err)
			}
			continue
		}

		var pop []*genotype.Genotype
		select {
		case pop = <-h.pending:
		case <-ctx.Done():
			return finish(ctx.Err())
		}

		res, err := h.evaluator.Evaluate(ctx, pop)
		if err != nil {
			return finish(fmt.Errorf("evaluating generation %d: %w", h.controller.Generation(), err))
		}
		select {
		case <-h.allDied:
		case <-ctx.Done():
			return finish(ctx.Err())
		}
		h.lastRuns = res.Aggregate
		h.summary.AgentsEvaluated += len(res.Runs)
		if h.metrics != nil {
			h.metrics.AgentsEvaluated(len(res.Runs))
		}

		if err := h.controller.EvaluationFinished(); err != nil {
			return finish(err)
		}
	}
	return finish(nil)
}

func (h *Harness) drain() {
	for {
		select {
		case <-h.pending:
		case <-h.allDied:
		default:
			return
		}
	}
}

// startRun builds a controller seeded from the active models and hands it its
// first population.
func (h *Harness) startRun(ctx context.Context, resume bool) error {
	if !h.manager.ValidActiveCount() {
		return ErrInvalidActiveModels
	}
	ops, err := h.cfg.Operators(h.rng)
	if err != nil {
		return err
	}

	seeds := h.manager.ActiveGenotypes()
	if resume {
		seeds = padSeeds(seeds, h.cfg.GA.Population)
	}

	opts := []ga.Option{
		ga.WithOperators(ops),
		ga.WithEvaluation(h.enqueue),
		ga.WithLogger(h.logger),
		ga.WithRand(h.rng),
	}
	if h.cfg.GA.RestartAfter > 0 {
		opts = append(opts, ga.WithTermination(ga.GenerationLimit(uint(h.cfg.GA.RestartAfter))))
	}
	if h.cfg.GA.DisableSorting {
		opts = append(opts, ga.WithoutSorting())
	}
	c, err := ga.NewController(seeds, h.cfg.GA.Population, opts...)
	if err != nil {
		return err
	}

	h.runID = h.newRunID()
	h.summary.RunIDs = append(h.summary.RunIDs, h.runID)
	h.controller = c
	h.terminated = false
	c.OnFitnessReady(func(pop []*genotype.Genotype) { h.fitnessReady(ctx, pop) })
	c.OnTerminated(func(*ga.Controller) { h.terminated = true })

	h.logger.Info("run started", "run_id", h.runID, "seeds", len(seeds), "resume", resume)
	if resume {
		return c.StartWithoutInitialization()
	}
	return c.Start()
}

func (h *Harness) restart(ctx context.Context) error {
	h.logger.Info("run finished, restarting", "run_id", h.runID, "delay", h.cfg.GA.RestartDelay)
	select {
	case <-time.After(h.cfg.GA.RestartDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	h.drain()
	h.summary.Restarts++
	if h.metrics != nil {
		h.metrics.Restarted()
	}
	return h.startRun(ctx, false)
}

// enqueue is the controller's evaluation hook. The loop picks the population up.
func (h *Harness) enqueue(pop []*genotype.Genotype) {
	h.pending <- pop
}

// fitnessReady records the scored generation and feeds good genotypes back
// into the active models.
func (h *Harness) fitnessReady(ctx context.Context, pop []*genotype.Genotype) {
	gen := h.controller.Generation()
	h.summary.Generations++

	summary := logging.Summarize(h.runID, gen, pop, h.lastRuns)
	if h.runLog != nil {
		if err := h.runLog.LogGeneration(summary); err != nil {
			h.logger.Error("writing generation summary", "error", err)
		}
	}
	if h.metrics != nil {
		h.metrics.ObserveGeneration(gen, ga.Summarize(pop))
	}
	h.logger.Debug("generation scored",
		"run_id", h.runID,
		"generation", gen,
		"best_evaluation", summary.BestEvaluation,
		"mean_evaluation", summary.MeanEvaluation)

	for _, g := range pop {
		if h.summary.Champion == nil || g.Evaluation > h.summary.Champion.Evaluation {
			champion := g.Clone()
			champion.Evaluation = g.Evaluation
			champion.Fitness = g.Fitness
			h.summary.Champion = champion
			h.summary.ChampionRunID = h.runID
			h.summary.ChampionGeneration = gen
		}
	}

	threshold := float32(h.cfg.Eval.ModelUpdateThreshold)
	for _, g := range pop {
		if g.Evaluation < threshold {
			break
		}
		name, err := h.manager.PushRandomActiveModelUpdate(ctx, g)
		if err != nil {
			h.logger.Error("updating model", "error", err)
			break
		}
		h.summary.ModelUpdates++
		h.logger.Info("model updated", "model", name, "evaluation", g.Evaluation, "generation", gen)
	}
}

// padSeeds cycles through seeds until there are n of them, cloning repeats.
func padSeeds(seeds []*genotype.Genotype, n int) []*genotype.Genotype {
	if len(seeds) == 0 || len(seeds) >= n {
		return seeds
	}
	out := make([]*genotype.Genotype, 0, n)
	out = append(out, seeds...)
	for i := 0; len(out) < n; i++ {
		out = append(out, seeds[i%len(seeds)].Clone())
	}
	return out
}
