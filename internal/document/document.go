// Package document loads raw schema documents into a generic tree of
// mappings, sequences and scalars. The tree is what the normalizer
// consumes; no schema interpretation happens here.
package document

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

// Tree is the root of a decoded document: a yaml.MapSlice (ordered
// mapping), []any, or a scalar. Mappings decode ordered so that field
// order survives into reporting.
type Tree = any

// Load reads and decodes a document from a file. JSON documents decode
// through the same path since YAML is a superset.
func Load(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data)
}

// Parse decodes document bytes into a generic tree.
func Parse(data []byte) (Tree, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return v, nil
}

// Entry is one key/value pair of a mapping node.
type Entry struct {
	Key   string
	Value any
}

// Mapping returns the entries of a mapping node in document order.
// It accepts both the ordered form produced by Parse and plain
// map[string]any trees supplied by external adapters; for the latter the
// entries come back sorted by key so traversal stays deterministic.
func Mapping(v any) ([]Entry, bool) {
	switch m := v.(type) {
	case yaml.MapSlice:
		out := make([]Entry, 0, len(m))
		for _, item := range m {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}
			out = append(out, Entry{Key: key, Value: item.Value})
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, 0, len(m))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: m[k]})
		}
		return out, true
	default:
		return nil, false
	}
}

// Get returns the value for key in a mapping node.
func Get(v any, key string) (any, bool) {
	entries, ok := Mapping(v)
	if !ok {
		return nil, false
	}
	for _, e := range entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// GetString returns the string value for key, or "" when absent or not
// a string.
func GetString(v any, key string) string {
	raw, ok := Get(v, key)
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return s
}

// GetBool returns the bool value for key, defaulting to false.
func GetBool(v any, key string) bool {
	raw, ok := Get(v, key)
	if !ok {
		return false
	}
	b, _ := raw.(bool)
	return b
}
