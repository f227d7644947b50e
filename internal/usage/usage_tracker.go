package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"cropdoc/internal/logging"
)

// FileName is the tracker file created next to the store.
const FileName = "usage.json"

type (
	trackerKey struct{}
	kindKey    struct{}
)

// Tracker records classifier token usage and persists it as JSON.
type Tracker struct {
	mu       sync.Mutex
	data     Data
	filePath string
	dirty    bool
}

// NewTracker creates a tracker backed by path. A missing or corrupt file
// starts from empty counters.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}

	t := &Tracker{filePath: path, data: emptyData()}
	if err := t.Load(); err != nil {
		logging.BootWarn("usage file %s unreadable, starting fresh: %v", path, err)
		t.data = emptyData()
	}
	return t, nil
}

func emptyData() Data {
	return Data{
		Version: "1.0",
		Aggregate: AggregatedStats{
			ByBackend: make(map[string]TokenCounts),
			ByModel:   make(map[string]TokenCounts),
			ByKind:    make(map[string]TokenCounts),
		},
	}
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}

	if t.data.Aggregate.ByBackend == nil {
		t.data.Aggregate.ByBackend = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByModel == nil {
		t.data.Aggregate.ByModel = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByKind == nil {
		t.data.Aggregate.ByKind = make(map[string]TokenCounts)
	}
	return nil
}

// Save writes the usage data to disk if anything was tracked since the last save.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.filePath, data, 0644); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Track records one completed model call. The diagnosis kind is read from ctx.
func (t *Tracker) Track(ctx context.Context, backend, model string, input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kind := KindFromContext(ctx)
	if kind == "" {
		kind = "unknown"
	}

	t.data.Aggregate.Total.Add(input, output)
	addToMap(t.data.Aggregate.ByBackend, backend, input, output)
	addToMap(t.data.Aggregate.ByModel, model, input, output)
	addToMap(t.data.Aggregate.ByKind, kind, input, output)
	t.dirty = true
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByBackend = copyTokenCountsMap(stats.ByBackend)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByKind = copyTokenCountsMap(stats.ByKind)
	return stats
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]TokenCounts) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// FromContext retrieves the tracker from the context, or nil.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}

// WithKind tags ctx with the diagnosis kind being classified.
func WithKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

// KindFromContext returns the kind set by WithKind, or "".
func KindFromContext(ctx context.Context) string {
	k, _ := ctx.Value(kindKey{}).(string)
	return k
}

// Record tracks a call on the tracker carried by ctx, if any.
func Record(ctx context.Context, backend, model string, input, output int) {
	if t := FromContext(ctx); t != nil {
		t.Track(ctx, backend, model, input, output)
	}
}
