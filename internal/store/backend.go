package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cropdoc/internal/config"
	"cropdoc/internal/logging"
	"cropdoc/internal/types"
)

// documentKey names the single document in keyed backends.
const documentKey = "cropdoc/document"

// Backend persists the whole store document as one opaque blob.
// Load returns nil data when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// OpenBackend opens the backend named in cfg.
func OpenBackend(cfg config.StoreConfig) (Backend, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	logging.StoreDebug("opening %s backend at %s", backend, cfg.Path)
	switch backend {
	case "", "json":
		return NewFileBackend(cfg.Path), nil
	case "sqlite":
		return NewSQLiteBackend(cfg.Path, cfg.Driver)
	case "leveldb":
		return NewLevelDBBackend(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", types.ErrConfiguration, cfg.Backend)
	}
}

// MemoryBackend keeps the document in memory. Used by tests and dry runs.
type MemoryBackend struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load implements Backend.
func (m *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }
