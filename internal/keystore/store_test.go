package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{Path: filepath.Join(dir, "storage.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(Config{Backend: "valkey"})
	assert.ErrorContains(t, err, "valkey URL is required")

	_, err = New(Config{Backend: "etcd"})
	assert.ErrorContains(t, err, "unknown key store backend")
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())

	_, err = s.Get(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	require.NoError(t, s.Set(ctx, "  sk-one  "))
	key, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-one", key)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"openaiApiKey": "sk-one"`)

	require.NoError(t, s.Set(ctx, "sk-two"))
	key, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-two", key)

	require.NoError(t, s.Delete(ctx))
	_, err = s.Get(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	require.NoError(t, s.Delete(ctx))
}

func TestFileStore_RejectsEmptyKey(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	assert.ErrorContains(t, s.Set(context.Background(), "   "), "cannot be empty")
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_KeepsOtherValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0600))
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "sk"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"theme": "dark"`)
}

func TestFileStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))
	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(context.Background())
	assert.ErrorContains(t, err, "invalid key store file")
}

func TestWithOverride(t *testing.T) {
	ctx := context.Background()
	base, err := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	assert.Same(t, base, WithOverride(base, "  ").(*FileStore))

	s := WithOverride(base, "sk-env")
	key, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)

	require.NoError(t, s.Set(ctx, "sk-file"))
	key, err = base.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", key)
}
