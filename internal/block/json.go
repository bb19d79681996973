package block

import (
	"fmt"

	"github.com/bytedance/sonic"
)

type jsonOptions struct {
	def        any
	hasDefault bool
	fallback   func(raw string) (any, error)
}

// JSONOption configures GetJSON.
type JSONOption func(*jsonOptions)

// WithDefault is returned by GetJSON when the key is missing.
func WithDefault(v any) JSONOption {
	return func(o *jsonOptions) {
		o.def = v
		o.hasDefault = true
	}
}

// WithFallback is applied to the raw string when it is not valid JSON.
func WithFallback(fn func(raw string) (any, error)) JSONOption {
	return func(o *jsonOptions) { o.fallback = fn }
}

// KeepRaw is a fallback that returns the undecodable string unchanged.
func KeepRaw(raw string) (any, error) {
	return raw, nil
}

// GetJSON decodes a string value as JSON. Non-string values are returned as
// stored.
func (b *DataBlock) GetJSON(section, name string, opts ...JSONOption) (any, error) {
	o := &jsonOptions{}
	for _, opt := range opts {
		opt(o)
	}

	_, v, ok := b.lookup(section, name)
	if !ok {
		if o.hasDefault {
			return o.def, nil
		}
		return nil, notFound(section, name)
	}
	raw, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out any
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		if o.fallback != nil {
			return o.fallback(raw)
		}
		return nil, fmt.Errorf("decode JSON value %q in section [%s]: %w", name, section, err)
	}
	return out, nil
}
