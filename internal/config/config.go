package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"neurocars/internal/ga"
	"neurocars/internal/nn"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the root configuration structure
type Config struct {
	Seed    int64         `yaml:"seed" ini:"seed"`
	Models  ModelsConfig  `yaml:"models" ini:"models"`
	NN      NNConfig      `yaml:"nn" ini:"nn"`
	GA      GAConfig      `yaml:"ga" ini:"ga"`
	Track   TrackConfig   `yaml:"track" ini:"track"`
	Eval    EvalConfig    `yaml:"eval" ini:"eval"`
	Logging LogConfig     `yaml:"logging" ini:"logging"`
	Metrics MetricsConfig `yaml:"metrics" ini:"metrics"`
}

// ModelsConfig defines where seed models live
type ModelsConfig struct {
	Store        string   `yaml:"store" ini:"store"` // memory|file|sqlite
	Path         string   `yaml:"path" ini:"path"`
	Names        []string `yaml:"names" ini:"names" delim:","`
	Topology     string   `yaml:"topology" ini:"topology"` // used when the store holds none
	LoadFromFile bool     `yaml:"load_from_file" ini:"load_from_file"`
}

// NNConfig defines the controller network
type NNConfig struct {
	Activation string `yaml:"activation" ini:"activation"` // softsign|sigmoid|tanh
}

// GAConfig defines genetic algorithm parameters
type GAConfig struct {
	Population      int           `yaml:"population" ini:"population"`
	Selection       string        `yaml:"selection" ini:"selection"` // best|rss
	Keep            int           `yaml:"keep" ini:"keep"`
	Recombination   string        `yaml:"recombination" ini:"recombination"` // pair|random
	SwapProb        float64       `yaml:"swap_prob" ini:"swap_prob"`
	Mutation        string        `yaml:"mutation" ini:"mutation"` // all|skip_best_two
	MutationProb    float64       `yaml:"mutation_prob" ini:"mutation_prob"`
	MutationAmount  float64       `yaml:"mutation_amount" ini:"mutation_amount"`
	MutationPercent float64       `yaml:"mutation_percent" ini:"mutation_percent"`
	DisableSorting  bool          `yaml:"disable_sorting" ini:"disable_sorting"`
	RestartAfter    int           `yaml:"restart_after" ini:"restart_after"` // zero or negative never restarts
	RestartDelay    time.Duration `yaml:"restart_delay" ini:"restart_delay"`
}

// TrackConfig defines the simulated course
type TrackConfig struct {
	Path               string    `yaml:"path" ini:"path"` // empty selects the built-in loop
	MaxTicks           int       `yaml:"max_ticks" ini:"max_ticks"`
	TimeStep           float64   `yaml:"time_step" ini:"time_step"`
	MaxCheckpointDelay float64   `yaml:"max_checkpoint_delay" ini:"max_checkpoint_delay"`
	SensorAngles       []float64 `yaml:"sensor_angles" ini:"sensor_angles" delim:","`
}

// EvalConfig defines evaluation parameters
type EvalConfig struct {
	Workers              int     `yaml:"workers" ini:"workers"`
	ModelUpdateThreshold float64 `yaml:"model_update_threshold" ini:"model_update_threshold"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level        string `yaml:"level" ini:"level"`   // debug|info|warn|error
	Format       string `yaml:"format" ini:"format"` // json|text
	CSVPath      string `yaml:"csv_path" ini:"csv_path"`
	JSONPath     string `yaml:"json_path" ini:"json_path"`
	ChampionPath string `yaml:"champion_path" ini:"champion_path"`
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" ini:"addr"` // empty disables the endpoint
}

// Load reads a YAML or, for .ini files, INI config file and returns a validated Config
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		cfg, err = loadINI(path)
	} else {
		cfg, err = loadYAML(path)
	}
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := base()
	applyDefaults(cfg)
	return cfg
}

// base holds the numeric defaults. Files are decoded on top of it so keys a
// file leaves out keep their default while an explicit zero is kept as zero.
func base() *Config {
	return &Config{
		Seed: 1337,
		GA: GAConfig{
			Population:      24,
			Keep:            ga.DefaultKeep,
			SwapProb:        ga.DefaultSwapProb,
			MutationProb:    ga.DefaultMutationProb,
			MutationAmount:  ga.DefaultMutationAmount,
			MutationPercent: ga.DefaultMutationPercent,
			RestartAfter:    100,
			RestartDelay:    time.Second,
		},
		Track: TrackConfig{
			MaxTicks:           6000,
			TimeStep:           0.02,
			MaxCheckpointDelay: 7,
		},
		Eval: EvalConfig{
			ModelUpdateThreshold: 0.8,
		},
	}
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return cfg, nil
}

func loadINI(path string) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", path, err)
	}

	cfg := base()
	if key, err := file.Section(ini.DefaultSection).GetKey("seed"); err == nil {
		if cfg.Seed, err = key.Int64(); err != nil {
			return nil, fmt.Errorf("failed to parse seed: %w", err)
		}
	}

	sections := []struct {
		name string
		dst  any
	}{
		{"models", &cfg.Models},
		{"nn", &cfg.NN},
		{"ga", &cfg.GA},
		{"track", &cfg.Track},
		{"eval", &cfg.Eval},
		{"logging", &cfg.Logging},
		{"metrics", &cfg.Metrics},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).StrictMapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}
	for i, name := range cfg.Models.Names {
		cfg.Models.Names[i] = strings.TrimSpace(name)
	}
	return cfg, nil
}

// applyDefaults fills settings that have no meaningful empty value.
func applyDefaults(cfg *Config) {
	if cfg.Models.Store == "" {
		cfg.Models.Store = "file"
	}
	if cfg.Models.Path == "" {
		switch cfg.Models.Store {
		case "sqlite":
			cfg.Models.Path = "saves/models.db"
		default:
			cfg.Models.Path = "saves"
		}
	}
	if len(cfg.Models.Names) == 0 {
		cfg.Models.Names = []string{"Alpha", "Beta"}
	}
	if cfg.Models.Topology == "" {
		cfg.Models.Topology = "5;4;4;2"
	}
	if cfg.NN.Activation == "" {
		cfg.NN.Activation = "softsign"
	}
	if cfg.GA.Selection == "" {
		cfg.GA.Selection = "best"
	}
	if cfg.GA.Recombination == "" {
		cfg.GA.Recombination = "pair"
	}
	if cfg.GA.Mutation == "" {
		cfg.GA.Mutation = "all"
	}
	if len(cfg.Track.SensorAngles) == 0 {
		cfg.Track.SensorAngles = []float64{-60, -30, 0, 30, 60}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/run.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/run.jsonl"
	}
	if cfg.Logging.ChampionPath == "" {
		cfg.Logging.ChampionPath = "runs/champion.json"
	}
}

// Validate rejects values no run can use.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Models.Store {
	case "memory", "file", "sqlite":
	default:
		invalid("models.store %q", c.Models.Store)
	}
	if t, err := c.Topology(); err != nil {
		invalid("models.topology: %v", err)
	} else {
		if t.Inputs() != len(c.Track.SensorAngles) {
			invalid("topology has %d inputs but the track provides %d sensors", t.Inputs(), len(c.Track.SensorAngles))
		}
		if t.Outputs() < 2 {
			invalid("topology needs at least 2 outputs, has %d", t.Outputs())
		}
	}
	if _, err := nn.ActivationByName(c.NN.Activation); err != nil {
		invalid("nn.activation: %v", err)
	}

	if c.GA.Population < 2 {
		invalid("ga.population %d is below 2", c.GA.Population)
	}
	switch c.GA.Selection {
	case "best":
		if c.GA.Keep < 2 || c.GA.Keep > c.GA.Population {
			invalid("ga.keep %d must be between 2 and the population size", c.GA.Keep)
		}
	case "rss":
	default:
		invalid("ga.selection %q", c.GA.Selection)
	}
	switch c.GA.Recombination {
	case "pair", "random":
	default:
		invalid("ga.recombination %q", c.GA.Recombination)
	}
	switch c.GA.Mutation {
	case "all", "skip_best_two":
	default:
		invalid("ga.mutation %q", c.GA.Mutation)
	}
	for name, p := range map[string]float64{
		"ga.swap_prob":        c.GA.SwapProb,
		"ga.mutation_prob":    c.GA.MutationProb,
		"ga.mutation_percent": c.GA.MutationPercent,
	} {
		if p < 0 || p > 1 {
			invalid("%s %v is outside [0, 1]", name, p)
		}
	}
	if c.GA.MutationAmount < 0 {
		invalid("ga.mutation_amount %v is negative", c.GA.MutationAmount)
	}

	if c.GA.RestartDelay < 0 {
		invalid("ga.restart_delay %v is negative", c.GA.RestartDelay)
	}

	if c.Track.TimeStep <= 0 {
		invalid("track.time_step %v must be positive", c.Track.TimeStep)
	}
	if c.Track.MaxTicks <= 0 {
		invalid("track.max_ticks %d must be positive", c.Track.MaxTicks)
	}
	if c.Track.MaxCheckpointDelay <= 0 {
		invalid("track.max_checkpoint_delay %v must be positive", c.Track.MaxCheckpointDelay)
	}
	if c.Eval.ModelUpdateThreshold < 0 {
		invalid("eval.model_update_threshold %v is negative", c.Eval.ModelUpdateThreshold)
	}
	if c.Eval.Workers < 0 {
		invalid("eval.workers %d is negative", c.Eval.Workers)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		invalid("logging.format %q", c.Logging.Format)
	}
	return errors.Join(errs...)
}

// Topology parses the default model topology.
func (c *Config) Topology() (nn.Topology, error) {
	t, err := nn.ParseTopology(c.Models.Topology)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Operators builds the GA strategies named in the config on a shared random source.
func (c *Config) Operators(rng *ga.Rand) (ga.Operators, error) {
	ops := ga.Operators{Fitness: ga.AverageFitness{}}

	switch c.GA.Selection {
	case "best":
		ops.Selection = ga.KeepBest{K: c.GA.Keep}
	case "rss":
		ops.Selection = ga.RemainderStochasticSampling{Rand: rng}
	default:
		return ga.Operators{}, fmt.Errorf("%w: ga.selection %q", ErrInvalid, c.GA.Selection)
	}

	switch c.GA.Recombination {
	case "pair":
		ops.Recombination = ga.SinglePair{SwapProb: c.GA.SwapProb, Rand: rng}
	case "random":
		ops.Recombination = ga.RandomPair{SwapProb: c.GA.SwapProb, Rand: rng}
	default:
		return ga.Operators{}, fmt.Errorf("%w: ga.recombination %q", ErrInvalid, c.GA.Recombination)
	}

	mutation := ga.UniformMutation{
		Percent: c.GA.MutationPercent,
		Prob:    c.GA.MutationProb,
		Amount:  c.GA.MutationAmount,
		Rand:    rng,
	}
	switch c.GA.Mutation {
	case "all":
	case "skip_best_two":
		mutation.SkipFirst = 2
	default:
		return ga.Operators{}, fmt.Errorf("%w: ga.mutation %q", ErrInvalid, c.GA.Mutation)
	}
	ops.Mutation = mutation
	return ops, nil
}
