package format

import (
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// TOML decodes tables as sections and their keys as options. TOML decoding
// does not preserve key order, so sections and options are sorted by name.
type TOML struct{}

// Decode implements Decoder.
func (TOML) Decode(filename string, src []byte) (*Document, error) {
	var root map[string]any
	if err := toml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML file %s: %w", filename, err)
	}

	doc := &Document{Files: []string{filename}}
	for _, name := range sortedKeys(root) {
		table, ok := root[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: %q must be a table, got %T", filename, name, root[name])
		}
		section := doc.Ensure(name)
		for _, key := range sortedKeys(table) {
			section.Set(key, normalizeTOML(table[key]))
		}
	}
	return doc, nil
}

func normalizeTOML(v any) any {
	switch x := v.(type) {
	case int64:
		return int(x)
	case []any:
		for i, val := range x {
			x[i] = normalizeTOML(val)
		}
		return x
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeTOML(val)
		}
		return x
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
