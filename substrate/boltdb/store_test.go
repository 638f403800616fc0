package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "substrate.db")
	s, err := Open(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	_, ok, err := s.Get(ctx, "invoices")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "invoices", `{"schemaVersion":1,"records":[]}`))

	v, ok, err := s.Get(ctx, "invoices")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"schemaVersion":1,"records":[]}`, v)

	require.NoError(t, s.Delete(ctx, "invoices"))
	_, ok, err = s.Get(ctx, "invoices")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValueSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "substrate.db")

	s, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "wallets", "persisted"))
	require.NoError(t, s.Close())

	s, err = Open(path, "")
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "wallets")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "substrate.db")
	s, err := Open(path, "kv")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "k", "v"))

	v, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}
