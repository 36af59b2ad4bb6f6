package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"neurocars/internal/agent"
	"neurocars/internal/config"
	"neurocars/internal/eval"
	"neurocars/internal/ga"
	"neurocars/internal/genotype"
	"neurocars/internal/logging"
	"neurocars/internal/metrics"
	"neurocars/internal/models"
	"neurocars/internal/nn"
	"neurocars/internal/run"
	"neurocars/internal/track"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or INI config file (defaults when empty)")
	generations := flag.Int("generations", 1000, "number of generations to score across all runs, 0 for no limit")
	tracePath := flag.String("trace", "", "write a trace of the champion's drive to this JSON file")
	flag.Parse()

	if err := train(*configPath, *generations, *tracePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func train(configPath string, generations int, tracePath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	logger, err := logging.NewSlog(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := ga.NewRand(cfg.Seed)

	store, err := models.NewStore(cfg.Models.Store, cfg.Models.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("opening %s store at %s: %w", cfg.Models.Store, cfg.Models.Path, err)
	}
	defer models.CloseIfSupported(store)

	topology, err := cfg.Topology()
	if err != nil {
		return err
	}
	manager := models.NewManager(store, rng,
		models.WithNames(cfg.Models.Names...),
		models.WithDefaultTopology(topology),
		models.WithPopulationSize(cfg.GA.Population),
		models.WithManagerLogger(logger),
	)
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("loading models: %w", err)
	}
	topology = manager.Topology()

	sim, err := buildSimulation(cfg)
	if err != nil {
		return err
	}
	if topology.Inputs() != sim.SensorCount() {
		return fmt.Errorf("model topology %s expects %d inputs, track provides %d sensors",
			topology, topology.Inputs(), sim.SensorCount())
	}
	activation, err := nn.ActivationByName(cfg.NN.Activation)
	if err != nil {
		return err
	}
	evaluator := eval.NewEvaluator(sim, topology,
		eval.WithWorkers(cfg.Eval.Workers),
		eval.WithActivation(activation),
		eval.WithLogger(logger),
	)

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, logger)
		srv.Start(ctx)
		defer srv.Shutdown()
	}

	runLog, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath, os.Stdout)
	if err != nil {
		return fmt.Errorf("creating run logger: %w", err)
	}
	if err := runLog.Init(); err != nil {
		return fmt.Errorf("initializing run logger: %w", err)
	}
	defer runLog.Close()

	fmt.Printf("Neurocars Trainer - Course: %s (%.0f units, %d checkpoints)\n",
		sim.Course().Name, sim.Course().Length(), len(sim.Course().Checkpoints))
	fmt.Printf("Topology: %s (%s weights), Population: %d\n",
		topology, humanize.Comma(int64(topology.WeightCount())), cfg.GA.Population)
	fmt.Printf("Operators: selection=%s recombination=%s mutation=%s, restart after %d generations\n",
		cfg.GA.Selection, cfg.GA.Recombination, cfg.GA.Mutation, cfg.GA.RestartAfter)
	fmt.Println("---")

	harness := run.New(cfg, manager, evaluator, rng,
		run.WithMetrics(m),
		run.WithRunLogger(runLog),
		run.WithLogger(logger),
	)
	summary, runErr := harness.Run(ctx, generations)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Println("---")
	fmt.Printf("Training complete! %s generations, %s runs, %s agents driven in %v\n",
		humanize.Comma(int64(summary.Generations)),
		humanize.Comma(int64(len(summary.RunIDs))),
		humanize.Comma(int64(summary.AgentsEvaluated)),
		summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("Model updates pushed: %s\n", humanize.Comma(int64(summary.ModelUpdates)))

	if err := manager.SaveAll(context.Background()); err != nil {
		return fmt.Errorf("saving models: %w", err)
	}

	if summary.Champion == nil {
		return nil
	}
	fmt.Printf("Champion: completion %.1f%% in the %s generation of run %s\n",
		summary.Champion.Evaluation*100, humanize.Ordinal(int(summary.ChampionGeneration)), summary.ChampionRunID)
	if err := logging.SaveChampion(cfg.Logging.ChampionPath, summary.Champion, topology,
		summary.ChampionRunID, summary.ChampionGeneration); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save champion: %v\n", err)
	}

	if tracePath != "" {
		if err := saveTrace(sim, summary.Champion.Clone(), topology, activation, tracePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save trace: %v\n", err)
		}
	}
	return nil
}

func buildSimulation(cfg *config.Config) (*track.Simulation, error) {
	course := track.Default()
	if cfg.Track.Path != "" {
		var err error
		if course, err = track.Load(cfg.Track.Path); err != nil {
			return nil, err
		}
	}
	return track.NewSimulation(course,
		track.WithMaxTicks(cfg.Track.MaxTicks),
		track.WithTimeStep(cfg.Track.TimeStep),
		track.WithMaxCheckpointDelay(cfg.Track.MaxCheckpointDelay),
		track.WithSensorAngles(cfg.Track.SensorAngles),
	), nil
}

func saveTrace(sim *track.Simulation, g *genotype.Genotype, topology nn.Topology, activation nn.Activation, path string) error {
	a, err := agent.New(g, topology, agent.WithActivation(activation))
	if err != nil {
		return err
	}
	trace := track.NewTrace(sim.Course().Name, 10)
	stats, err := sim.Run(context.Background(), a, trace.Observe)
	if err != nil {
		return err
	}
	trace.SetFinalStats(stats)
	return trace.Save(path)
}
