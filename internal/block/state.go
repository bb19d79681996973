// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements opaque persistence of a block: every value is wrapped
// in an envelope naming its Go shape, encoded as JSON with sonic and
// compressed with zstd. There is no schema versioning.
package block

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

// State is the exported form of a DataBlock.
type State struct {
	Sections map[string]SectionState `json:"sections"`
	Mapping  MappingState            `json:"mapping"`
}

// SectionState is the exported form of one section.
type SectionState struct {
	Shared bool             `json:"shared,omitempty"`
	Values map[string]Value `json:"values"`
}

// Value is a typed envelope around one stored value.
type Value struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

const (
	kindBool         = "bool"
	kindInt          = "int"
	kindFloat        = "float"
	kindString       = "string"
	kindBoolArray    = "bool_array"
	kindIntArray     = "int_array"
	kindFloatArray   = "float_array"
	kindStringArray  = "string_array"
	kindIntSlice     = "int_slice"
	kindFloatSlice   = "float_slice"
	kindStringSlice  = "string_slice"
	kindGenericValue = "json"
)

func encodeValue(v any) (Value, error) {
	var kind string
	payload := v
	switch x := v.(type) {
	case bool:
		kind = kindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, _ := asInt(x)
		kind, payload = kindInt, n
	case float32:
		kind, payload = kindFloat, float64(x)
	case float64:
		kind = kindFloat
	case string:
		kind = kindString
	case Array[bool]:
		kind = kindBoolArray
	case Array[int64]:
		kind = kindIntArray
	case Array[float64]:
		kind = kindFloatArray
	case Array[string]:
		kind = kindStringArray
	case []int:
		kind = kindIntSlice
	case []float64:
		kind = kindFloatSlice
	case []string:
		kind = kindStringSlice
	default:
		kind = kindGenericValue
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		return Value{}, fmt.Errorf("encode %T: %w", v, err)
	}
	return Value{Kind: kind, Data: data}, nil
}

func decodeInto[T any](data []byte) (any, error) {
	var out T
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(v Value) (any, error) {
	switch v.Kind {
	case kindBool:
		return decodeInto[bool](v.Data)
	case kindInt:
		return decodeInto[int](v.Data)
	case kindFloat:
		return decodeInto[float64](v.Data)
	case kindString:
		return decodeInto[string](v.Data)
	case kindBoolArray:
		return decodeInto[Array[bool]](v.Data)
	case kindIntArray:
		return decodeInto[Array[int64]](v.Data)
	case kindFloatArray:
		return decodeInto[Array[float64]](v.Data)
	case kindStringArray:
		return decodeInto[Array[string]](v.Data)
	case kindIntSlice:
		return decodeInto[[]int](v.Data)
	case kindFloatSlice:
		return decodeInto[[]float64](v.Data)
	case kindStringSlice:
		return decodeInto[[]string](v.Data)
	case kindGenericValue:
		return decodeInto[any](v.Data)
	default:
		return nil, fmt.Errorf("unknown value kind %q", v.Kind)
	}
}

// State exports the canonical contents, section policies and mapping.
func (b *DataBlock) State() (State, error) {
	s := State{
		Sections: make(map[string]SectionState, len(b.store.sections)),
		Mapping:  b.mapping.State(),
	}
	for section, sec := range b.store.sections {
		ss := SectionState{Shared: sec.policy == Shared, Values: make(map[string]Value, len(sec.values))}
		for name, v := range sec.values {
			enc, err := encodeValue(v)
			if err != nil {
				return State{}, fmt.Errorf("section [%s] name %q: %w", section, name, err)
			}
			ss.Values[name] = enc
		}
		s.Sections[section] = ss
	}
	return s, nil
}

// FromState rebuilds a block exported with State.
func FromState(s State) (*DataBlock, error) {
	b := &DataBlock{
		store:   &store{sections: make(map[string]*sectionStore, len(s.Sections))},
		mapping: MappingFromState(s.Mapping),
	}
	for section, ss := range s.Sections {
		policy := Owned
		if ss.Shared {
			policy = Shared
		}
		sec := newSectionStore(policy)
		for name, enc := range ss.Values {
			v, err := decodeValue(enc)
			if err != nil {
				return nil, fmt.Errorf("section [%s] name %q: %w", section, name, err)
			}
			sec.values[name] = v
		}
		b.store.sections[section] = sec
	}
	return b, nil
}

// Save writes the block state to w.
func (b *DataBlock) Save(w io.Writer) error {
	s, err := b.State()
	if err != nil {
		return err
	}
	data, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode block state: %w", err)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("write block state: %w", err)
	}
	return zw.Close()
}

// Load reads a block written by Save.
func Load(r io.Reader) (*DataBlock, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read block state: %w", err)
	}
	var s State
	if err := sonic.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode block state: %w", err)
	}
	return FromState(s)
}
