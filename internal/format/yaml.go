package format

import (
	"fmt"
	"math"

	"github.com/goccy/go-yaml"
)

// YAML decodes a top-level mapping of sections, each a mapping of options.
// Section and option order follow the file.
type YAML struct{}

// Decode implements Decoder.
func (YAML) Decode(filename string, src []byte) (*Document, error) {
	var root yaml.MapSlice
	if err := yaml.UnmarshalWithOptions(src, &root, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}

	doc := &Document{Files: []string{filename}}
	for _, item := range root {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("%s: section key %v is not a string", filename, item.Key)
		}
		section := doc.Ensure(name)
		if item.Value == nil {
			continue
		}
		options, ok := item.Value.(yaml.MapSlice)
		if !ok {
			return nil, fmt.Errorf("%s: section %q must be a mapping, got %T", filename, name, item.Value)
		}
		for _, opt := range options {
			key, ok := opt.Key.(string)
			if !ok {
				return nil, fmt.Errorf("%s: option key %v in section %q is not a string", filename, opt.Key, name)
			}
			section.Set(key, normalizeYAML(opt.Value))
		}
	}
	return doc, nil
}

// normalizeYAML turns nested ordered maps into plain maps and unsigned
// integers into int.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(x))
		for _, item := range x {
			m[fmt.Sprint(item.Key)] = normalizeYAML(item.Value)
		}
		return m
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeYAML(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalizeYAML(val)
		}
		return x
	case uint64:
		if x <= math.MaxInt64 {
			return int(x)
		}
		return x
	case int64:
		return int(x)
	}
	return v
}
