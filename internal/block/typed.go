// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file contains the typed getters. They check the stored value against
// a coarse declared type only; no further validation is performed.
package block

// GetType returns the stored value if it satisfies t. A missing key yields
// def[0] when given, otherwise NotFound.
func (b *DataBlock) GetType(section, name string, t Type, def ...any) (any, error) {
	_, v, ok := b.lookup(section, name)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return nil, notFound(section, name)
	}
	if !t.matches(v) {
		return nil, wrongType(section, name, t, v)
	}
	return v, nil
}

func getTyped[T any](b *DataBlock, section, name string, t Type, conv func(any) (T, bool), def []T) (T, error) {
	var zero T
	_, v, ok := b.lookup(section, name)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return zero, notFound(section, name)
	}
	out, ok := conv(v)
	if !ok {
		return zero, wrongType(section, name, t, v)
	}
	return out, nil
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// GetBool returns a bool value.
func (b *DataBlock) GetBool(section, name string, def ...bool) (bool, error) {
	return getTyped(b, section, name, Bool, asBool, def)
}

// GetInt returns an integer value of any Go integer type as int.
func (b *DataBlock) GetInt(section, name string, def ...int) (int, error) {
	return getTyped(b, section, name, Int, asInt, def)
}

// GetFloat returns a float32 or float64 value as float64. Integers are not
// accepted.
func (b *DataBlock) GetFloat(section, name string, def ...float64) (float64, error) {
	return getTyped(b, section, name, Float, asFloat, def)
}

// GetNumber returns any integer or float value as float64. It suits options
// written by hand, where 1 and 1.0 mean the same thing.
func (b *DataBlock) GetNumber(section, name string, def ...float64) (float64, error) {
	return getTyped(b, section, name, Float, func(v any) (float64, bool) {
		if f, ok := asFloat(v); ok {
			return f, true
		}
		n, ok := asInt(v)
		return float64(n), ok
	}, def)
}

// GetDouble is GetFloat.
func (b *DataBlock) GetDouble(section, name string, def ...float64) (float64, error) {
	return b.GetFloat(section, name, def...)
}

// GetString returns a string value.
func (b *DataBlock) GetString(section, name string, def ...string) (string, error) {
	return getTyped(b, section, name, String, asString, def)
}

// GetArray returns an Array[T] with ndim dimensions.
func GetArray[T Elem](b *DataBlock, section, name string, ndim int, def ...Array[T]) (Array[T], error) {
	var kind Kind
	switch any(*new(T)).(type) {
	case bool:
		kind = KindBool
	case int64:
		kind = KindInt
	case float64:
		kind = KindFloat
	case string:
		kind = KindString
	}
	t := Type{Kind: kind, NDim: ndim}
	return getTyped(b, section, name, t, func(v any) (Array[T], bool) {
		a, ok := v.(Array[T])
		return a, ok && a.NDim() == ndim
	}, def)
}

// GetIntArray1D returns a one-dimensional integer array.
func (b *DataBlock) GetIntArray1D(section, name string, def ...Array[int64]) (Array[int64], error) {
	return GetArray(b, section, name, 1, def...)
}

// GetFloatArray1D returns a one-dimensional float array.
func (b *DataBlock) GetFloatArray1D(section, name string, def ...Array[float64]) (Array[float64], error) {
	return GetArray(b, section, name, 1, def...)
}

// GetFloatArray2D returns a two-dimensional float array.
func (b *DataBlock) GetFloatArray2D(section, name string, def ...Array[float64]) (Array[float64], error) {
	return GetArray(b, section, name, 2, def...)
}
