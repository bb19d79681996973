// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the bidirectional alias table used by DataBlock.
//
// Why two tables?
//
// Reads and writes resolve an alias to its canonical slot through forward,
// while enumeration reports canonical storage back under the alias the
// caller used through inverse. inverse is always rebuilt from forward after
// a mutation, so the two never drift apart.
package block

import (
	"fmt"
	"strings"
)

// Mapping rewrites keys at section or (section, name) granularity. Pair rules
// take precedence over section rules. Unmapped keys resolve to themselves.
type Mapping struct {
	forward map[Key]Key
	inverse map[Key]Key
	order   []Key
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{
		forward: make(map[Key]Key),
		inverse: make(map[Key]Key),
	}
}

// ParseMapping builds a Mapping from a compact rule list of the form
// "old1.old2,new1.new2 old3,new3". Each rule makes new an alias of the
// canonical key old. Both sides must have the same arity (1 or 2).
func ParseMapping(rules string) (*Mapping, error) {
	m := NewMapping()
	for _, rule := range strings.Fields(rules) {
		parts := strings.Split(rule, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q must have the form old,new", ErrMapping, rule)
		}
		canonical, err := parseRuleKey(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMapping, rule, err)
		}
		alias, err := parseRuleKey(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMapping, rule, err)
		}
		if canonical.IsSection() != alias.IsSection() {
			return nil, fmt.Errorf("%w: in %q both terms should be the same size (1 or 2)", ErrMapping, rule)
		}
		m.set(alias, canonical)
	}
	m.rebuild()
	return m, nil
}

func parseRuleKey(term string) (Key, error) {
	fields := strings.Split(strings.TrimSpace(term), ".")
	for _, f := range fields {
		if f == "" {
			return Key{}, fmt.Errorf("empty key component in %q", term)
		}
	}
	switch len(fields) {
	case 1:
		return Key{Section: fields[0]}, nil
	case 2:
		return K(fields[0], fields[1]), nil
	default:
		return Key{}, fmt.Errorf("key %q has %d components, expected 1 or 2", term, len(fields))
	}
}

// Add registers alias as another name for canonical. Both keys must be of the
// same granularity.
func (m *Mapping) Add(alias, canonical Key) error {
	if alias.IsSection() != canonical.IsSection() {
		return fmt.Errorf("%w: %s and %s differ in size", ErrMapping, alias, canonical)
	}
	m.set(alias, canonical)
	m.rebuild()
	return nil
}

// Update merges the forward table of other into m. Later entries win on
// collisions; inverse is rebuilt from scratch.
func (m *Mapping) Update(other *Mapping) {
	if other == nil {
		return
	}
	for _, alias := range other.order {
		m.set(alias, other.forward[alias])
	}
	m.rebuild()
}

func (m *Mapping) set(alias, canonical Key) {
	if _, exists := m.forward[alias]; !exists {
		m.order = append(m.order, alias)
	}
	m.forward[alias] = canonical
}

func (m *Mapping) rebuild() {
	m.inverse = make(map[Key]Key, len(m.forward))
	for _, alias := range m.order {
		m.inverse[m.forward[alias]] = alias
	}
}

// Resolve maps (section, name) to its canonical key.
func (m *Mapping) Resolve(section, name string) Key {
	if canonical, ok := m.forward[K(section, name)]; ok {
		return canonical
	}
	if canonical, ok := m.forward[Key{Section: section}]; ok {
		return K(canonical.Section, name)
	}
	return K(section, name)
}

// ResolveSection maps a section name through section-level rules only.
func (m *Mapping) ResolveSection(section string) string {
	if canonical, ok := m.forward[Key{Section: section}]; ok {
		return canonical.Section
	}
	return section
}

// Invert maps a canonical (section, name) back to the alias callers use.
func (m *Mapping) Invert(section, name string) Key {
	if alias, ok := m.inverse[K(section, name)]; ok {
		return alias
	}
	if alias, ok := m.inverse[Key{Section: section}]; ok {
		return K(alias.Section, name)
	}
	return K(section, name)
}

// InvertSection maps a canonical section back through section-level rules.
func (m *Mapping) InvertSection(section string) string {
	if alias, ok := m.inverse[Key{Section: section}]; ok {
		return alias.Section
	}
	return section
}

// Entry is one alias rule.
type Entry struct {
	Alias     Key `json:"alias"`
	Canonical Key `json:"canonical"`
}

// Entries returns the rules in insertion order.
func (m *Mapping) Entries() []Entry {
	entries := make([]Entry, 0, len(m.order))
	for _, alias := range m.order {
		entries = append(entries, Entry{Alias: alias, Canonical: m.forward[alias]})
	}
	return entries
}

// Len returns the number of rules.
func (m *Mapping) Len() int {
	return len(m.order)
}

// Copy returns an independent copy.
func (m *Mapping) Copy() *Mapping {
	c := NewMapping()
	c.Update(m)
	return c
}

func (m *Mapping) String() string {
	rules := make([]string, 0, len(m.order))
	for _, e := range m.Entries() {
		rules = append(rules, e.Canonical.String()+","+e.Alias.String())
	}
	return strings.Join(rules, " ")
}

// MappingState is the persisted form of a Mapping.
type MappingState struct {
	Rules []Entry `json:"rules"`
}

// State exports the mapping for persistence.
func (m *Mapping) State() MappingState {
	return MappingState{Rules: m.Entries()}
}

// MappingFromState restores a mapping exported with State.
func MappingFromState(s MappingState) *Mapping {
	m := NewMapping()
	for _, e := range s.Rules {
		m.set(e.Alias, e.Canonical)
	}
	m.rebuild()
	return m
}
