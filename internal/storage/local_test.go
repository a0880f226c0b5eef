package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()

	store, err := NewLocalStorage(filepath.Join(t.TempDir(), "nested", "base"), zerolog.Nop())
	require.NoError(t, err)
	return store
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalStorage_WriteRead(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	err := store.Write(ctx, "exports/2024/run.csv", strings.NewReader("Coupon\nAB12\n"), "text/csv")
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "exports/2024/run.csv")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := store.Read(ctx, "exports/2024/run.csv")
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "Coupon\nAB12\n", string(content))
}

func TestLocalStorage_Write_Overwrites(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "run.csv", strings.NewReader("old"), "text/csv"))
	require.NoError(t, store.Write(ctx, "run.csv", strings.NewReader("new"), "text/csv"))

	content, err := os.ReadFile(filepath.Join(store.BasePath(), "run.csv"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestLocalStorage_Write_FailedCopyLeavesNothing(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "run.csv", strings.NewReader("original"), "text/csv"))

	err := store.Write(ctx, "run.csv", failingReader{}, "text/csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	content, err := os.ReadFile(filepath.Join(store.BasePath(), "run.csv"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))

	entries, err := os.ReadDir(store.BasePath())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStorage_PathTraversal(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "../../escape.csv", strings.NewReader("x"), "text/csv"))

	_, err := os.Stat(filepath.Join(store.BasePath(), "escape.csv"))
	assert.NoError(t, err, "traversal keys stay under the base path")
	_, err = os.Stat(filepath.Join(filepath.Dir(filepath.Dir(store.BasePath())), "escape.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_Write_InvalidKey(t *testing.T) {
	store := newTestLocalStorage(t)

	for _, key := range []string{"", "/", "../.."} {
		err := store.Write(context.Background(), key, strings.NewReader("x"), "text/csv")
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalStorage_Read_NotFound(t *testing.T) {
	store := newTestLocalStorage(t)

	rc, err := store.Read(context.Background(), "missing.csv")

	require.Error(t, err)
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Exists(context.Background(), "missing.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}
