package models

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"neurocars/internal/nn"
)

const (
	modelExt     = ".save"
	topologyFile = "Topology"
)

// FileStore keeps each model in <dir>/<name>.save and the topology in <dir>/Topology.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("models directory is required")
	}
	return os.MkdirAll(s.dir, 0o755)
}

func (s *FileStore) modelPath(name string) string {
	return filepath.Join(s.dir, name+modelExt)
}

func (s *FileStore) SaveModel(_ context.Context, m Model) error {
	if err := validName(m.Name); err != nil {
		return err
	}
	data, err := m.MarshalText()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.modelPath(m.Name), data)
}

func (s *FileStore) GetModel(_ context.Context, name string) (Model, bool, error) {
	if err := validName(name); err != nil {
		return Model{}, false, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.modelPath(name))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Model{}, false, nil
		}
		return Model{}, false, err
	}

	m := Model{Name: name}
	if err := m.UnmarshalText(data); err != nil {
		return Model{}, false, fmt.Errorf("decode model %s: %w", name, err)
	}
	return m, true, nil
}

func (s *FileStore) ListModels(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), modelExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), modelExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) SaveTopology(_ context.Context, t nn.Topology) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(filepath.Join(s.dir, topologyFile), []byte(t.String()))
}

func (s *FileStore) GetTopology(_ context.Context) (nn.Topology, bool, error) {
	s.mu.Lock()
	data, err := os.ReadFile(filepath.Join(s.dir, topologyFile))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	t, err := nn.ParseTopology(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, false, fmt.Errorf("decode topology: %w", err)
	}
	return t, true, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid model name %q", name)
	}
	return nil
}
