//go:build sqlite

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"neurocars/internal/genotype"
	"neurocars/internal/nn"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveModel(ctx context.Context, m Model) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var raw string
	if m.Genotype != nil {
		raw = m.Genotype.String()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO models (name, active, genotype)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			active = excluded.active,
			genotype = excluded.genotype
	`, m.Name, m.Active, raw)
	return err
}

func (s *SQLiteStore) GetModel(ctx context.Context, name string) (Model, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Model{}, false, err
	}

	var (
		active bool
		raw    string
	)
	err = db.QueryRowContext(ctx, `SELECT active, genotype FROM models WHERE name = ?`, name).Scan(&active, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Model{}, false, nil
		}
		return Model{}, false, err
	}

	g, err := genotype.Parse(raw)
	if err != nil {
		return Model{}, false, fmt.Errorf("decode model %s: %w", name, err)
	}
	return Model{Name: name, Active: active, Genotype: g}, true, nil
}

func (s *SQLiteStore) ListModels(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name FROM models ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) SaveTopology(ctx context.Context, t nn.Topology) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO topology (id, layers) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET layers = excluded.layers
	`, t.String())
	return err
}

func (s *SQLiteStore) GetTopology(ctx context.Context) (nn.Topology, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var raw string
	err = db.QueryRowContext(ctx, `SELECT layers FROM topology WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	t, err := nn.ParseTopology(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode topology: %w", err)
	}
	return t, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			active INTEGER NOT NULL,
			genotype TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS topology (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			layers TEXT NOT NULL
		);
	`)
	return err
}
