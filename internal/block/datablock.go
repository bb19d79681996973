// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements DataBlock, the store every module reads from and
// writes to.
//
// Storage and addressing are separate: several DataBlock values may share one
// store while each resolves keys through its own Mapping. This is how a
// module is bound to its pipeline's working block (see View) without a copy.
package block

import (
	"maps"
	"slices"
	"sort"
)

// Policy is the copy policy of a section.
type Policy int

const (
	// Owned sections are duplicated by DataCopy.
	Owned Policy = iota
	// Shared sections keep one store referenced by every copy.
	Shared
)

func (p Policy) String() string {
	if p == Shared {
		return "shared"
	}
	return "owned"
}

type sectionStore struct {
	values map[string]any
	policy Policy
}

func newSectionStore(p Policy) *sectionStore {
	return &sectionStore{values: make(map[string]any), policy: p}
}

type store struct {
	sections map[string]*sectionStore
}

// DataBlock is a mutable mapping from canonical Key to value with an attached
// Mapping. It is not safe for concurrent use; pipelines execute sequentially.
type DataBlock struct {
	store   *store
	mapping *Mapping
}

type settings struct {
	mapping *Mapping
	noCopy  []string
	values  map[string]map[string]any
}

// Option configures a new DataBlock.
type Option func(*settings)

// WithMapping attaches a mapping. The block keeps its own copy.
func WithMapping(m *Mapping) Option {
	return func(s *settings) { s.mapping = m }
}

// WithNoCopy replaces DefaultNoCopy with the given shared sections.
func WithNoCopy(sections ...string) Option {
	return func(s *settings) { s.noCopy = sections }
}

// WithValues seeds the block with canonical section -> name -> value data.
func WithValues(values map[string]map[string]any) Option {
	return func(s *settings) { s.values = values }
}

// New creates a DataBlock. Shared sections are created empty up front so that
// copies taken before any write still share them.
func New(opts ...Option) *DataBlock {
	s := &settings{noCopy: DefaultNoCopy}
	for _, opt := range opts {
		opt(s)
	}

	b := &DataBlock{
		store:   &store{sections: make(map[string]*sectionStore)},
		mapping: NewMapping(),
	}
	if s.mapping != nil {
		b.mapping = s.mapping.Copy()
	}
	for section, values := range s.values {
		sec := newSectionStore(Owned)
		maps.Copy(sec.values, values)
		b.store.sections[section] = sec
	}
	for _, section := range s.noCopy {
		b.SetPolicy(section, Shared)
	}
	return b
}

// Mapping returns the block's mapping. Mutating it changes how this block
// resolves keys.
func (b *DataBlock) Mapping() *Mapping {
	return b.mapping
}

// View returns a block over the same storage whose mapping is this block's
// mapping extended by m. Writes through the view are visible through b.
func (b *DataBlock) View(m *Mapping) *DataBlock {
	merged := b.mapping.Copy()
	merged.Update(m)
	return &DataBlock{store: b.store, mapping: merged}
}

// SharesStorage reports whether b and other address the same store.
func (b *DataBlock) SharesStorage(other *DataBlock) bool {
	return other != nil && b.store == other.store
}

func (b *DataBlock) lookup(section, name string) (Key, any, bool) {
	k := b.mapping.Resolve(section, name)
	sec, ok := b.store.sections[k.Section]
	if !ok {
		return k, nil, false
	}
	v, ok := sec.values[k.Name]
	return k, v, ok
}

// Has reports whether the canonical form of (section, name) is stored.
func (b *DataBlock) Has(section, name string) bool {
	_, _, ok := b.lookup(section, name)
	return ok
}

// HasSection reports whether the canonical form of section exists.
func (b *DataBlock) HasSection(section string) bool {
	_, ok := b.store.sections[b.mapping.ResolveSection(section)]
	return ok
}

// Get returns the stored value. A missing key yields def[0] when given,
// otherwise a NotFound error.
func (b *DataBlock) Get(section, name string, def ...any) (any, error) {
	if _, v, ok := b.lookup(section, name); ok {
		return v, nil
	}
	if len(def) > 0 {
		return def[0], nil
	}
	return nil, notFound(section, name)
}

// Put stores value, failing with AlreadyExists if the key is set.
func (b *DataBlock) Put(section, name string, value any) error {
	if b.Has(section, name) {
		return &Error{Kind: AlreadyExists, Section: section, Name: name}
	}
	b.Set(section, name, value)
	return nil
}

// Replace overwrites value, failing with NotExists if the key is not set.
func (b *DataBlock) Replace(section, name string, value any) error {
	if !b.Has(section, name) {
		return &Error{Kind: NotExists, Section: section, Name: name}
	}
	b.Set(section, name, value)
	return nil
}

// Set stores value unconditionally.
func (b *DataBlock) Set(section, name string, value any) {
	k := b.mapping.Resolve(section, name)
	sec, ok := b.store.sections[k.Section]
	if !ok {
		sec = newSectionStore(Owned)
		b.store.sections[k.Section] = sec
	}
	sec.values[k.Name] = value
}

// Delete removes a single value.
func (b *DataBlock) Delete(section, name string) error {
	k, _, ok := b.lookup(section, name)
	if !ok {
		return notFound(section, name)
	}
	delete(b.store.sections[k.Section].values, k.Name)
	return nil
}

// DeleteSection removes a whole section.
func (b *DataBlock) DeleteSection(section string) error {
	canonical := b.mapping.ResolveSection(section)
	if _, ok := b.store.sections[canonical]; !ok {
		return &Error{Kind: NotFound, Section: section}
	}
	delete(b.store.sections, canonical)
	return nil
}

// RenameSection moves section old to new, which must not exist yet.
func (b *DataBlock) RenameSection(old, new string) error {
	if b.HasSection(new) {
		return &Error{Kind: SectionAlreadyExists, Section: new}
	}
	oldCanonical := b.mapping.ResolveSection(old)
	sec, ok := b.store.sections[oldCanonical]
	if !ok {
		return &Error{Kind: NotFound, Section: old}
	}
	delete(b.store.sections, oldCanonical)
	b.store.sections[b.mapping.ResolveSection(new)] = sec
	return nil
}

// SetPolicy declares the copy policy of a section, creating it if needed.
func (b *DataBlock) SetPolicy(section string, p Policy) {
	canonical := b.mapping.ResolveSection(section)
	sec, ok := b.store.sections[canonical]
	if !ok {
		sec = newSectionStore(p)
		b.store.sections[canonical] = sec
	}
	sec.policy = p
}

// Policy returns the copy policy of a section; unknown sections are Owned.
func (b *DataBlock) Policy(section string) Policy {
	if sec, ok := b.store.sections[b.mapping.ResolveSection(section)]; ok {
		return sec.policy
	}
	return Owned
}

// Sections lists sections as callers name them, sorted.
func (b *DataBlock) Sections() []string {
	seen := make(map[string]struct{}, len(b.store.sections))
	out := make([]string, 0, len(b.store.sections))
	for canonical := range b.store.sections {
		alias := b.mapping.InvertSection(canonical)
		if _, dup := seen[alias]; dup {
			continue
		}
		seen[alias] = struct{}{}
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Keys enumerates stored keys, reported through the mapping's inverse. When
// sections are given only keys whose reported section is among them are
// returned. The result is sorted.
func (b *DataBlock) Keys(sections ...string) []Key {
	items := b.Items(sections...)
	keys := make([]Key, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}

// Items is Keys with the associated values. Values are read from the
// canonical slot each key was listed from, never resolved again: on a store
// shared by views with different mappings a reported key may resolve
// elsewhere.
func (b *DataBlock) Items(sections ...string) []Item {
	var items []Item
	for canonical, sec := range b.store.sections {
		for name, v := range sec.values {
			k := b.mapping.Invert(canonical, name)
			if len(sections) > 0 && !slices.Contains(sections, k.Section) {
				continue
			}
			items = append(items, Item{Key: k, Value: v})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		ki, kj := items[i].Key, items[j].Key
		if ki.Section != kj.Section {
			return ki.Section < kj.Section
		}
		return ki.Name < kj.Name
	})
	return items
}

// Update merges every canonical entry of other into b, key by key.
func (b *DataBlock) Update(other *DataBlock) {
	if other == nil || other.store == b.store {
		return
	}
	for section, src := range other.store.sections {
		dst, ok := b.store.sections[section]
		if !ok {
			dst = newSectionStore(Owned)
			b.store.sections[section] = dst
		}
		maps.Copy(dst.values, src.values)
	}
}

// DataCopy returns a new block with its own top-level store. Sections listed
// in nocopy (or, when none are given, the sections declared Shared) are
// shared by reference: writes to them through either block are visible to
// both. Every other section is copied shallowly: adding or removing names in
// the copy does not affect b, but mutating a shared nested value does.
func (b *DataBlock) DataCopy(nocopy ...string) *DataBlock {
	shared := make(map[string]struct{})
	if len(nocopy) > 0 {
		for _, section := range nocopy {
			canonical := b.mapping.ResolveSection(section)
			if _, ok := b.store.sections[canonical]; !ok {
				b.store.sections[canonical] = newSectionStore(Owned)
			}
			shared[canonical] = struct{}{}
		}
	} else {
		for name, sec := range b.store.sections {
			if sec.policy == Shared {
				shared[name] = struct{}{}
			}
		}
	}

	c := &DataBlock{
		store:   &store{sections: make(map[string]*sectionStore, len(b.store.sections))},
		mapping: b.mapping.Copy(),
	}
	for name, sec := range b.store.sections {
		if _, ok := shared[name]; ok {
			c.store.sections[name] = sec
			continue
		}
		c.store.sections[name] = &sectionStore{values: maps.Clone(sec.values), policy: sec.policy}
	}
	return c
}
