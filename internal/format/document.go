// Package format decodes configuration and parameter files into a Document,
// an ordered two-level structure of sections and options. HCL, YAML and TOML
// files are supported; the decoder is chosen by file extension.
package format

import (
	"slices"
)

// Option is one name/value pair of a section.
type Option struct {
	Name  string
	Value any
}

// Section is a named, ordered list of options.
type Section struct {
	Name    string
	Options []Option
}

// Get returns the value of an option.
func (s *Section) Get(name string) (any, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o.Value, true
		}
	}
	return nil, false
}

// Set overwrites an option in place or appends it.
func (s *Section) Set(name string, value any) {
	for i := range s.Options {
		if s.Options[i].Name == name {
			s.Options[i].Value = value
			return
		}
	}
	s.Options = append(s.Options, Option{Name: name, Value: value})
}

// Document is an ordered list of sections, as declared in its source files.
type Document struct {
	Sections []*Section
	// Files lists the source files in load order.
	Files []string
}

// Section returns the named section.
func (d *Document) Section(name string) (*Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Names returns the section names in order.
func (d *Document) Names() []string {
	names := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		names[i] = s.Name
	}
	return names
}

// Ensure returns the named section, appending an empty one if needed.
func (d *Document) Ensure(name string) *Section {
	if s, ok := d.Section(name); ok {
		return s
	}
	s := &Section{Name: name}
	d.Sections = append(d.Sections, s)
	return s
}

// Merge folds other into d option by option; later values win.
func (d *Document) Merge(other *Document) {
	if other == nil {
		return
	}
	for _, src := range other.Sections {
		dst := d.Ensure(src.Name)
		for _, o := range src.Options {
			dst.Set(o.Name, o.Value)
		}
	}
	for _, f := range other.Files {
		if !slices.Contains(d.Files, f) {
			d.Files = append(d.Files, f)
		}
	}
}

// Map returns the document as section -> name -> value.
func (d *Document) Map() map[string]map[string]any {
	out := make(map[string]map[string]any, len(d.Sections))
	for _, s := range d.Sections {
		m := make(map[string]any, len(s.Options))
		for _, o := range s.Options {
			m[o.Name] = o.Value
		}
		out[s.Name] = m
	}
	return out
}
