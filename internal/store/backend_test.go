package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropdoc/internal/config"
	"cropdoc/internal/types"
)

// exerciseBackend checks the contract every Backend must meet.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "fresh backend has no document")

	require.NoError(t, b.Save(ctx, []byte(`{"lists":[]}`)))
	require.NoError(t, b.Save(ctx, []byte(`{"lists":[],"cropPlans":[]}`)))

	data, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"lists":[],"cropPlans":[]}`, string(data))

	// The store works end to end on top of it.
	s := New(b)
	plan, _, err := s.CreateAndAddTask(ctx, types.OwnerPlan, "Tomato Plot", nil, "Remove Bermuda Grass")
	require.NoError(t, err)
	got, err := s.Get(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "store.json")
	b := NewFileBackend(path)
	exerciseBackend(t, b)
	require.NoError(t, b.Close())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "store.json", entries[0].Name())
}

func TestSQLiteBackend_PureGo(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "store.db"), DriverPureGo)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, DriverPureGo, b.Driver())
	exerciseBackend(t, b)
}

func TestSQLiteBackend_DefaultDriver(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "store.db"), "")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, DriverPureGo, b.Driver())
}

func TestSQLiteBackend_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "store.db"), "postgres")
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestLevelDBBackend(t *testing.T) {
	b, err := NewLevelDBBackend(filepath.Join(t.TempDir(), "store.ldb"))
	require.NoError(t, err)
	defer b.Close()
	exerciseBackend(t, b)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := OpenBackend(config.StoreConfig{Backend: "json", Path: filepath.Join(dir, "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)
	require.NoError(t, b.Close())

	b, err = OpenBackend(config.StoreConfig{Backend: "sqlite", Path: filepath.Join(dir, "s.db"), Driver: "sqlite"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteBackend{}, b)
	require.NoError(t, b.Close())

	b, err = OpenBackend(config.StoreConfig{Backend: "leveldb", Path: filepath.Join(dir, "s.ldb")})
	require.NoError(t, err)
	assert.IsType(t, &LevelDBBackend{}, b)
	require.NoError(t, b.Close())

	_, err = OpenBackend(config.StoreConfig{Backend: "redis", Path: "x"})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
