package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"cropdoc/internal/logging"
)

// LevelDBBackend stores the document under a single key. LevelDB is
// single-writer: a second process opening the same directory fails.
type LevelDBBackend struct {
	db *leveldb.DB
}

// NewLevelDBBackend opens (or creates) the LevelDB directory at dir.
func NewLevelDBBackend(dir string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s (another cropdoc process may hold it): %w", dir, err)
	}
	logging.Store("leveldb backend ready at %s", dir)
	return &LevelDBBackend{db: db}, nil
}

// Load implements Backend.
func (l *LevelDBBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := l.db.Get([]byte(documentKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return data, nil
}

// Save implements Backend.
func (l *LevelDBBackend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.db.Put([]byte(documentKey), data, nil); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Close implements Backend.
func (l *LevelDBBackend) Close() error {
	return l.db.Close()
}
