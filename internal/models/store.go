package models

import (
	"context"

	"neurocars/internal/nn"
)

// Store persists models and the network topology they were generated for.
type Store interface {
	Init(ctx context.Context) error
	SaveModel(ctx context.Context, m Model) error
	GetModel(ctx context.Context, name string) (Model, bool, error)
	ListModels(ctx context.Context) ([]string, error)
	SaveTopology(ctx context.Context, t nn.Topology) error
	GetTopology(ctx context.Context) (nn.Topology, bool, error)
}
