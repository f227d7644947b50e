package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cropdoc/internal/types"
)

func TestWatcher_ReportsExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	w, err := NewWatcher(path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Another process saving through its own store.
	other := New(NewFileBackend(path))
	_, err = other.Create(context.Background(), types.OwnerList, "Chores", nil)
	require.NoError(t, err)

	select {
	case _, ok := <-w.Events():
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "store.json"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	select {
	case <-w.Events():
		t.Fatal("unexpected event for unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
	w.Stop()

	_, ok := <-w.Events()
	require.False(t, ok, "events channel closes on stop")
}
