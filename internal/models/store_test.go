package models

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocars/internal/genotype"
	"neurocars/internal/nn"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetModel(ctx, "Alpha")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetTopology(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	alpha := Model{Name: "Alpha", Active: true, Genotype: genotype.New([]float64{0.25, -0.5})}
	beta := Model{Name: "Beta", Active: false, Genotype: genotype.New([]float64{1, 2})}
	require.NoError(t, store.SaveModel(ctx, alpha))
	require.NoError(t, store.SaveModel(ctx, beta))
	require.NoError(t, store.SaveTopology(ctx, nn.Topology{1, 1}))

	got, ok, err := store.GetModel(ctx, "Alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alpha", got.Name)
	assert.True(t, got.Active)
	assert.Equal(t, alpha.Genotype.ParameterCopy(), got.Genotype.ParameterCopy())

	got.Genotype.Set(0, 99)
	again, _, err := store.GetModel(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, 0.25, again.Genotype.At(0), "stored model must not alias returned copies")

	alpha.Active = false
	require.NoError(t, store.SaveModel(ctx, alpha))
	got, _, err = store.GetModel(ctx, "Alpha")
	require.NoError(t, err)
	assert.False(t, got.Active)

	names, err := store.ListModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names)

	topology, ok, err := store.GetTopology(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nn.Topology{1, 1}, topology)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	err := NewMemoryStore().SaveModel(context.Background(), Model{Name: "Alpha"})
	require.ErrorIs(t, err, errNotInitialized)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	exerciseStore(t, NewFileStore(dir))

	data, err := os.ReadFile(filepath.Join(dir, "Beta.save"))
	require.NoError(t, err)
	assert.Equal(t, "1;2\n0", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "Topology"))
	require.NoError(t, err)
	assert.Equal(t, "1;1", string(data))
}

func TestFileStoreRejectsBadNames(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Init(context.Background()))

	err := store.SaveModel(context.Background(), Model{Name: "../escape"})
	require.Error(t, err)
	_, _, err = store.GetModel(context.Background(), "")
	require.Error(t, err)
}

func TestFileStoreCorruptModel(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Init(context.Background()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alpha.save"), []byte("garbage"), 0o644))

	_, _, err := store.GetModel(context.Background(), "Alpha")
	require.ErrorIs(t, err, ErrModelFormat)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("file", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.NoError(t, CloseIfSupported(store))

	_, err = NewStore("unknown", "")
	require.Error(t, err)
}
