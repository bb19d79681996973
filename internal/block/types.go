// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the coarse type system typed getters check against, and
// the Array value that is the only accepted form for array-typed reads.
package block

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind is the element kind of a declared Type.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Type is a coarse declared type: a scalar when NDim is 0, otherwise an Array
// of Kind elements with NDim dimensions.
type Type struct {
	Kind Kind
	NDim int
}

// Common types.
var (
	Bool         = Type{Kind: KindBool}
	Int          = Type{Kind: KindInt}
	Float        = Type{Kind: KindFloat}
	String       = Type{Kind: KindString}
	IntArray1D   = Type{Kind: KindInt, NDim: 1}
	FloatArray1D = Type{Kind: KindFloat, NDim: 1}
	FloatArray2D = Type{Kind: KindFloat, NDim: 2}
)

func (t Type) String() string {
	if t.NDim == 0 {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s_array_%dd", t.Kind, t.NDim)
}

var arrayTypeRegex = regexp.MustCompile(`^([a-z]+)_array_(\d+)d$`)

// ParseType parses names such as "int", "double", "str" or "float_array_2d".
func ParseType(s string) (Type, error) {
	kind := func(name string) (Kind, bool) {
		switch name {
		case "bool":
			return KindBool, true
		case "int":
			return KindInt, true
		case "float", "double":
			return KindFloat, true
		case "string", "str":
			return KindString, true
		}
		return 0, false
	}

	if k, ok := kind(s); ok {
		return Type{Kind: k}, nil
	}
	matches := arrayTypeRegex.FindStringSubmatch(s)
	if matches == nil {
		return Type{}, fmt.Errorf("unknown type %q", s)
	}
	k, ok := kind(matches[1])
	if !ok {
		return Type{}, fmt.Errorf("unknown array element type %q", matches[1])
	}
	ndim, err := strconv.Atoi(matches[2])
	if err != nil || ndim < 1 {
		return Type{}, fmt.Errorf("invalid array dimensionality in %q", s)
	}
	return Type{Kind: k, NDim: ndim}, nil
}

// Elem is the set of element types an Array may hold.
type Elem interface {
	~bool | ~int64 | ~float64 | ~string
}

// Array is an n-dimensional, row-major array. It is the typed array form:
// a plain Go slice stored in a block never satisfies an array Type.
type Array[T Elem] struct {
	Shape []int `json:"shape"`
	Data  []T   `json:"data"`
}

// NewArray wraps data with the given shape. Without a shape the array is
// one-dimensional.
func NewArray[T Elem](data []T, shape ...int) (Array[T], error) {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	size := 1
	for _, n := range shape {
		if n < 0 {
			return Array[T]{}, fmt.Errorf("negative dimension in shape %v", shape)
		}
		size *= n
	}
	if size != len(data) {
		return Array[T]{}, fmt.Errorf("shape %v needs %d elements, got %d", shape, size, len(data))
	}
	return Array[T]{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Vector is a shorthand for a one-dimensional Array.
func Vector[T Elem](data ...T) Array[T] {
	return Array[T]{Shape: []int{len(data)}, Data: data}
}

// NDim returns the number of dimensions.
func (a Array[T]) NDim() int {
	return len(a.Shape)
}

// Size returns the number of elements.
func (a Array[T]) Size() int {
	return len(a.Data)
}

// At returns the element at the given indices.
func (a Array[T]) At(idx ...int) T {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("block: %d indices for %d-d array", len(idx), len(a.Shape)))
	}
	offset := 0
	for i, n := range idx {
		offset = offset*a.Shape[i] + n
	}
	return a.Data[offset]
}

// matches reports whether v satisfies t.
func (t Type) matches(v any) bool {
	if t.NDim == 0 {
		switch v.(type) {
		case bool:
			return t.Kind == KindBool
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return t.Kind == KindInt
		case float32, float64:
			return t.Kind == KindFloat
		case string:
			return t.Kind == KindString
		}
		return false
	}
	var kind Kind
	var ndim int
	switch a := v.(type) {
	case Array[bool]:
		kind, ndim = KindBool, a.NDim()
	case Array[int64]:
		kind, ndim = KindInt, a.NDim()
	case Array[float64]:
		kind, ndim = KindFloat, a.NDim()
	case Array[string]:
		kind, ndim = KindString, a.NDim()
	default:
		return false
	}
	return kind == t.Kind && ndim == t.NDim
}
