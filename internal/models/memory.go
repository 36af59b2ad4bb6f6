package models

import (
	"context"
	"sort"
	"sync"

	"neurocars/internal/nn"
)

type MemoryStore struct {
	mu       sync.RWMutex
	models   map[string]Model
	topology nn.Topology
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.models = make(map[string]Model)
	s.topology = nil
	return nil
}

func (s *MemoryStore) SaveModel(_ context.Context, m Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.models == nil {
		return errNotInitialized
	}
	s.models[m.Name] = m.Clone()
	return nil
}

func (s *MemoryStore) GetModel(_ context.Context, name string) (Model, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[name]
	if !ok {
		return Model{}, false, nil
	}
	return m.Clone(), true, nil
}

func (s *MemoryStore) ListModels(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) SaveTopology(_ context.Context, t nn.Topology) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.models == nil {
		return errNotInitialized
	}
	s.topology = t.Clone()
	return nil
}

func (s *MemoryStore) GetTopology(_ context.Context) (nn.Topology, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.topology == nil {
		return nil, false, nil
	}
	return s.topology.Clone(), true, nil
}
