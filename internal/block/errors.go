// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the state-access error taxonomy. Each failure kind is a
// distinct, inspectable value so callers can branch with errors.Is without
// parsing messages.
package block

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a state-access failure.
type ErrorKind int

const (
	// NotFound is returned by Get without a default on a missing key.
	NotFound ErrorKind = iota + 1
	// WrongType is returned by typed getters when the stored value does not
	// match the declared coarse type.
	WrongType
	// AlreadyExists is returned by Put when the key is already set.
	AlreadyExists
	// NotExists is returned by Replace when the key is not set.
	NotExists
	// SectionAlreadyExists is returned by RenameSection when the destination exists.
	SectionAlreadyExists
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "get_notfound"
	case WrongType:
		return "wrong_type"
	case AlreadyExists:
		return "put_exists"
	case NotExists:
		return "replace_notfound"
	case SectionAlreadyExists:
		return "section_exists"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A *Error matches the sentinel of its kind.
var (
	ErrNotFound             = &Error{Kind: NotFound}
	ErrWrongType            = &Error{Kind: WrongType}
	ErrAlreadyExists        = &Error{Kind: AlreadyExists}
	ErrNotExists            = &Error{Kind: NotExists}
	ErrSectionAlreadyExists = &Error{Kind: SectionAlreadyExists}

	// ErrMapping is wrapped by every malformed mapping rule error.
	ErrMapping = errors.New("invalid mapping rule")
)

// Error carries enough context to format an actionable message.
type Error struct {
	Kind    ErrorKind
	Section string
	Name    string
	// Want and Got are only set for WrongType.
	Want string
	Got  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case NotFound:
		return fmt.Sprintf("tried to get %q in section [%s], which does not exist", e.Name, e.Section)
	case WrongType:
		return fmt.Sprintf("wrong type for %q in section [%s]: want %s, got %s", e.Name, e.Section, e.Want, e.Got)
	case AlreadyExists:
		return fmt.Sprintf("tried to overwrite %q in section [%s]; use Replace to over-write", e.Name, e.Section)
	case NotExists:
		return fmt.Sprintf("tried to replace %q in section [%s], which does not exist; use Put to add a new key", e.Name, e.Section)
	case SectionAlreadyExists:
		return fmt.Sprintf("section [%s] already exists", e.Section)
	default:
		return fmt.Sprintf("block error in section [%s]", e.Section)
	}
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func notFound(section, name string) error {
	return &Error{Kind: NotFound, Section: section, Name: name}
}

func wrongType(section, name string, want Type, got any) error {
	return &Error{Kind: WrongType, Section: section, Name: name, Want: want.String(), Got: fmt.Sprintf("%T", got)}
}
