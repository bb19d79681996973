// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the address of a value in a DataBlock.
package block

import "fmt"

// Key addresses a value in a DataBlock. A Key with an empty Name addresses a
// whole section and is only meaningful inside a Mapping.
type Key struct {
	Section string `json:"section"`
	Name    string `json:"name,omitempty"`
}

// K is a shorthand constructor for a two-level Key.
func K(section, name string) Key {
	return Key{Section: section, Name: name}
}

// IsSection reports whether the key addresses a section rather than a value.
func (k Key) IsSection() bool {
	return k.Name == ""
}

// String renders the key the way mapping rules spell it: "section.name".
func (k Key) String() string {
	if k.IsSection() {
		return k.Section
	}
	return fmt.Sprintf("%s.%s", k.Section, k.Name)
}

// Item is a single enumerated entry of a block.
type Item struct {
	Key   Key
	Value any
}
