// Package enrichment matches a diagnosed entity against the user's crop plans.
package enrichment

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTableVersion is the version of the built-in weed to crop table.
const DefaultTableVersion = 1

// Table maps a canonical weed name to the crops it commonly affects.
// Keys and crops are lower case.
type Table struct {
	Version int                 `yaml:"version"`
	Entries map[string][]string `yaml:"entries"`
}

var defaultEntries = map[string][]string{
	"bermuda grass":   {"tomato", "potato", "onion", "wheat", "rice", "corn", "maize"},
	"pigweed":         {"tomato", "potato", "bean", "corn", "maize", "soybean"},
	"crabgrass":       {"rice", "wheat", "onion", "carrot"},
	"dandelion":       {"tomato", "lettuce", "spinach", "cabbage"},
	"bindweed":        {"potato", "tomato", "bean", "pea", "corn", "wheat"},
	"chickweed":       {"lettuce", "spinach", "carrot", "onion"},
	"purslane":        {"tomato", "pepper", "eggplant"},
	"lamb's quarters": {"beet", "spinach", "chard"},
	"johnson grass":   {"corn", "maize", "sorghum", "cotton"},
	"foxtail":         {"corn", "rice", "wheat", "soybean"},
}

// DefaultTable returns a fresh copy of the built-in table.
func DefaultTable() Table {
	t := Table{Version: DefaultTableVersion, Entries: make(map[string][]string, len(defaultEntries))}
	for k, crops := range defaultEntries {
		t.Entries[k] = append([]string(nil), crops...)
	}
	return t
}

// LoadTable returns the built-in table extended by the YAML file at path.
// An empty path yields the built-in table.
func LoadTable(path string) (Table, error) {
	table := DefaultTable()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("failed to read mapping file: %w", err)
	}
	var extra Table
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return table, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	return table.Merge(extra), nil
}

// Merge returns the union of t and other. Crops for a shared key are
// combined; the higher version wins.
func (t Table) Merge(other Table) Table {
	out := Table{Version: t.Version, Entries: make(map[string][]string, len(t.Entries)+len(other.Entries))}
	if other.Version > out.Version {
		out.Version = other.Version
	}
	for _, src := range []map[string][]string{t.Entries, other.Entries} {
		for k, crops := range src {
			key := normalize(k)
			if key == "" {
				continue
			}
			for _, c := range crops {
				if c = normalize(c); c != "" && !contains(out.Entries[key], c) {
					out.Entries[key] = append(out.Entries[key], c)
				}
			}
		}
	}
	return out
}

// Keys returns the table keys in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t.Entries))
	for k := range t.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CropsFor returns the crops of every entry whose key contains entityName
// or is contained in it, compared case-insensitively.
func (t Table) CropsFor(entityName string) []string {
	entity := normalize(entityName)
	if entity == "" {
		return nil
	}
	var crops []string
	for _, key := range t.Keys() {
		if !matches(entity, normalize(key)) {
			continue
		}
		for _, c := range t.Entries[key] {
			if c = normalize(c); c != "" && !contains(crops, c) {
				crops = append(crops, c)
			}
		}
	}
	return crops
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// matches is bidirectional substring containment on normalized strings.
func matches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
