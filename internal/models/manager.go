package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"neurocars/internal/genotype"
	"neurocars/internal/nn"
)

// Defaults for a Manager.
var (
	DefaultNames    = []string{"Alpha", "Beta"}
	DefaultTopology = nn.Topology{5, 4, 4, 2}
)

const DefaultPopulationSize = 24

// ErrNoActiveModels is returned when an update targets the active models but none are active.
var ErrNoActiveModels = errors.New("models: no active models")

// Rand is the randomness a Manager needs for generation and model picking.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Manager owns the named models that seed evolution and keeps them in a Store.
type Manager struct {
	store           Store
	rng             Rand
	logger          *slog.Logger
	names           []string
	defaultTopology nn.Topology
	populationSize  int

	mu       sync.Mutex
	models   []Model
	topology nn.Topology
}

// ManagerOption configures NewManager.
type ManagerOption func(*Manager)

// WithNames sets the model names managed.
func WithNames(names ...string) ManagerOption {
	return func(m *Manager) { m.names = append([]string(nil), names...) }
}

// WithDefaultTopology sets the topology used when the store holds none.
func WithDefaultTopology(t nn.Topology) ManagerOption {
	return func(m *Manager) { m.defaultTopology = t.Clone() }
}

// WithPopulationSize sets the desired population size reported to the GA.
func WithPopulationSize(n int) ManagerOption {
	return func(m *Manager) { m.populationSize = n }
}

// WithManagerLogger sets the logger. Nil discards.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager over an initialized store.
func NewManager(store Store, rng Rand, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:           store,
		rng:             rng,
		names:           DefaultNames,
		defaultTopology: DefaultTopology,
		populationSize:  DefaultPopulationSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m
}

// Load reads the topology and every named model from the store. Missing models,
// and models whose parameter count does not fit the topology, are generated at
// random. Everything is written back afterwards.
func (m *Manager) Load(ctx context.Context) error {
	topology, ok, err := m.store.GetTopology(ctx)
	if err != nil {
		return fmt.Errorf("loading topology: %w", err)
	}
	if !ok {
		topology = m.defaultTopology.Clone()
	}
	if err := topology.Validate(); err != nil {
		return err
	}

	loaded := make([]Model, 0, len(m.names))
	for _, name := range m.names {
		model, ok, err := m.store.GetModel(ctx, name)
		if err != nil {
			return fmt.Errorf("loading model %s: %w", name, err)
		}
		if ok && model.Genotype.ParameterCount() == topology.WeightCount() {
			loaded = append(loaded, model)
			continue
		}
		if ok {
			m.logger.Warn("model does not fit topology, regenerating",
				"model", name, "parameters", model.Genotype.ParameterCount(), "topology", topology.String())
		}
		model, err = Generate(name, topology, m.rng)
		if err != nil {
			return err
		}
		loaded = append(loaded, model)
	}

	m.mu.Lock()
	m.models = loaded
	m.topology = topology
	m.mu.Unlock()

	m.logger.Info("models loaded", "count", len(loaded), "topology", topology.String())
	return m.SaveAll(ctx)
}

// Topology returns the topology models are built for.
func (m *Manager) Topology() nn.Topology {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topology.Clone()
}

// PopulationSize returns the desired GA population size.
func (m *Manager) PopulationSize() int {
	return m.populationSize
}

// Models returns copies of every model.
func (m *Manager) Models() []Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Model, len(m.models))
	for i, model := range m.models {
		out[i] = model.Clone()
	}
	return out
}

// ActiveModels returns copies of the active models.
func (m *Manager) ActiveModels() []Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Model
	for _, model := range m.models {
		if model.Active {
			out = append(out, model.Clone())
		}
	}
	return out
}

// ActiveGenotypes returns independent copies of the active models' genotypes.
func (m *Manager) ActiveGenotypes() []*genotype.Genotype {
	active := m.ActiveModels()
	out := make([]*genotype.Genotype, len(active))
	for i, model := range active {
		out[i] = model.Genotype
	}
	return out
}

// ValidActiveCount reports whether one or two models are active.
func (m *Manager) ValidActiveCount() bool {
	n := len(m.ActiveModels())
	return n == 1 || n == 2
}

// SetActive changes a model's active flag in memory.
func (m *Manager) SetActive(name string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.models {
		if m.models[i].Name == name {
			m.models[i].Active = active
			return nil
		}
	}
	return fmt.Errorf("unknown model %q", name)
}

// Regenerate replaces every model with a random one for the current topology.
// Nothing is persisted until SaveAll.
func (m *Manager) Regenerate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := make([]Model, 0, len(m.names))
	for _, name := range m.names {
		model, err := Generate(name, m.topology, m.rng)
		if err != nil {
			return err
		}
		fresh = append(fresh, model)
	}
	m.models = fresh
	return nil
}

// PushRandomActiveModelUpdate replaces the genotype of a randomly chosen active
// model with a copy of g and persists that model. It returns the model's name.
func (m *Manager) PushRandomActiveModelUpdate(ctx context.Context, g *genotype.Genotype) (string, error) {
	m.mu.Lock()
	var candidates []int
	for i, model := range m.models {
		if model.Active {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		m.mu.Unlock()
		return "", ErrNoActiveModels
	}
	i := candidates[m.rng.Intn(len(candidates))]
	m.models[i].Genotype = g.Clone()
	updated := m.models[i].Clone()
	m.mu.Unlock()

	if err := m.store.SaveModel(ctx, updated); err != nil {
		return "", fmt.Errorf("saving model %s: %w", updated.Name, err)
	}
	m.logger.Debug("model updated", "model", updated.Name)
	return updated.Name, nil
}

// SaveAll persists every model and the topology.
func (m *Manager) SaveAll(ctx context.Context) error {
	models := m.Models()
	topology := m.Topology()

	for _, model := range models {
		if err := m.store.SaveModel(ctx, model); err != nil {
			return fmt.Errorf("saving model %s: %w", model.Name, err)
		}
	}
	if err := m.store.SaveTopology(ctx, topology); err != nil {
		return fmt.Errorf("saving topology: %w", err)
	}
	return nil
}
