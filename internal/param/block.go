package param

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/format"
)

// Block is an ordered, name-indexed collection of parameters. Setting a name
// that exists replaces it in place; new names are appended.
type Block struct {
	params []*Param
	index  map[string]int
}

// NewBlock returns a block holding params in order.
func NewBlock(params ...*Param) *Block {
	b := &Block{index: make(map[string]int)}
	for _, p := range params {
		b.Set(p)
	}
	return b
}

// Set adds p or replaces the parameter of the same name.
func (b *Block) Set(p *Param) {
	if i, ok := b.index[p.Name]; ok {
		b.params[i] = p
		return
	}
	b.index[p.Name] = len(b.params)
	b.params = append(b.params, p)
}

// Get returns the named parameter.
func (b *Block) Get(name string) (*Param, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.params[i], true
}

func (b *Block) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

func (b *Block) Len() int { return len(b.params) }

// Names returns parameter names in order.
func (b *Block) Names() []string {
	names := make([]string, len(b.params))
	for i, p := range b.params {
		names[i] = p.Name
	}
	return names
}

// All returns the parameters in order.
func (b *Block) All() []*Param {
	return append([]*Param(nil), b.params...)
}

// Varied returns the parameters that are not fixed, in order.
func (b *Block) Varied() []*Param {
	var out []*Param
	for _, p := range b.params {
		if !p.Fixed {
			out = append(out, p)
		}
	}
	return out
}

// Update sets every parameter of other into b.
func (b *Block) Update(other *Block) {
	if other == nil {
		return
	}
	for _, p := range other.params {
		b.Set(p)
	}
}

// Copy returns a block of cloned parameters.
func (b *Block) Copy() *Block {
	c := NewBlock()
	for _, p := range b.params {
		c.Set(p.Clone())
	}
	return c
}

// Values returns name -> current value.
func (b *Block) Values() map[string]float64 {
	out := make(map[string]float64, len(b.params))
	for _, p := range b.params {
		out[p.Name] = p.Value
	}
	return out
}

// LogPrior sums the prior log-density of every varied parameter at values,
// falling back to the current value for names absent from values.
func (b *Block) LogPrior(values map[string]float64) float64 {
	total := 0.0
	for _, p := range b.Varied() {
		x, ok := values[p.Name]
		if !ok {
			x = p.Value
		}
		total += p.Prior.LogProb(x)
		if math.IsInf(total, -1) {
			return total
		}
	}
	return total
}

// SampleRef draws a value for every varied parameter from its reference
// distribution.
func (b *Block) SampleRef(src rand.Source) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, p := range b.Varied() {
		v, err := p.Ref.Sample(src)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out[p.Name] = v
	}
	return out, nil
}

// FromDocument builds a block where each section is one parameter and its
// options are the parameter fields.
func FromDocument(doc *format.Document) (*Block, error) {
	b := NewBlock()
	for _, s := range doc.Sections {
		spec := make(map[string]any, len(s.Options))
		for _, o := range s.Options {
			spec[o.Name] = o.Value
		}
		p, err := FromSpec(s.Name, spec)
		if err != nil {
			return nil, err
		}
		b.Set(p)
	}
	return b, nil
}

// Load reads a parameter file in any supported format.
func Load(ctx context.Context, path string) (*Block, error) {
	doc, err := format.LoadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Parameters loaded.", "path", path, "count", b.Len())
	return b, nil
}
