package config

import (
	"context"
	"slices"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/format"
)

// Block is a DataBlock populated from configuration files. It has no shared
// sections: copies of a configuration are always independent.
type Block struct {
	*block.DataBlock
	files []string
}

// New returns an empty configuration.
func New() *Block {
	return &Block{DataBlock: block.New(block.WithNoCopy())}
}

// FromDocument stores every option of doc.
func FromDocument(doc *format.Document) *Block {
	b := New()
	for _, s := range doc.Sections {
		b.SetPolicy(s.Name, block.Owned)
		for _, o := range s.Options {
			b.Set(s.Name, o.Name, o.Value)
		}
	}
	b.files = append(b.files, doc.Files...)
	return b
}

// Load decodes and merges the given files and directories.
func Load(ctx context.Context, paths ...string) (*Block, error) {
	doc, err := format.Load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	b := FromDocument(doc)
	ctxlog.FromContext(ctx).Info("Configuration loaded.", "files", len(b.files), "sections", len(b.Sections()))
	return b, nil
}

// Files returns the source files in load order.
func (b *Block) Files() []string {
	return append([]string(nil), b.files...)
}

// Options returns a read/write view of one section.
func (b *Block) Options(section string) block.SectionBlock {
	return block.Section(b.DataBlock, section)
}

// Reader is a configuration that cannot be modified.
type Reader interface {
	Options(section string) block.SectionReader
	Files() []string
}

type readOnly struct{ b *Block }

func (r readOnly) Options(section string) block.SectionReader {
	return r.b.Options(section).ReadOnly()
}

func (r readOnly) Files() []string { return r.b.Files() }

// ReadOnly returns a Reader over b. Later changes to b are visible through
// it.
func (b *Block) ReadOnly() Reader { return readOnly{b: b} }

// ApplyJSON decodes, in place, every string option that holds JSON. Strings
// that are not valid JSON are left unchanged.
func (b *Block) ApplyJSON() error {
	for _, item := range b.Items() {
		if _, ok := item.Value.(string); !ok {
			continue
		}
		v, err := b.GetJSON(item.Key.Section, item.Key.Name, block.WithFallback(block.KeepRaw))
		if err != nil {
			return err
		}
		b.Set(item.Key.Section, item.Key.Name, v)
	}
	return nil
}

// Merge folds other into b key by key; values of other win.
func (b *Block) Merge(other *Block) {
	if other == nil || other == b {
		return
	}
	b.Update(other.DataBlock)
	for _, f := range other.files {
		if !slices.Contains(b.files, f) {
			b.files = append(b.files, f)
		}
	}
}

// Copy returns an independent configuration.
func (b *Block) Copy() *Block {
	return &Block{
		DataBlock: b.DataCopy(),
		files:     b.Files(),
	}
}
