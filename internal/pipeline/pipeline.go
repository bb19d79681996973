// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements Pipeline, the interior node of the stage tree.
//
// A pipeline binds itself like any module, then derives its pipe block with
// DataCopy and binds every child to that one block. Children therefore see
// each other's writes within a pass, in declared order, while shared sections
// (parameters by default) stay tied to the pipeline's own block across passes.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
)

// Pipeline runs an ordered list of child nodes.
type Pipeline struct {
	base
	modules []Node
	pipe    *block.DataBlock
}

// NewPipeline seeds the pipeline with the nodes given by WithModules, then
// resolves every name listed in its "modules" option from the registry. The
// configuration of all children is merged into the pipeline's and shared back
// down, children's parameters are accumulated, and finally the pipeline and
// its children are bound.
func NewPipeline(ctx context.Context, name string, opts ...Option) (*Pipeline, error) {
	s := newSettings(opts)
	p := &Pipeline{}
	p.name = name
	p.typ, p.kind = "Pipeline", KindClass
	p.configure(s)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Init pipeline.", "pipeline", name)

	seen := make(map[string]struct{})
	add := func(n Node) error {
		if _, dup := seen[n.Name()]; dup {
			return fmt.Errorf("%w: pipeline %s: duplicate module name %q", ErrModule, name, n.Name())
		}
		seen[n.Name()] = struct{}{}
		p.modules = append(p.modules, n)
		return nil
	}
	for _, n := range s.modules {
		if err := add(n); err != nil {
			return nil, err
		}
	}

	names, err := stringList(p.Options(), "modules")
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline %s: %v", ErrModule, name, err)
	}
	for _, childName := range names {
		if _, dup := seen[childName]; dup {
			return nil, fmt.Errorf("%w: pipeline %s: duplicate module name %q", ErrModule, name, childName)
		}
		child, err := FromLibrary(ctx, childName, s.inherit(p.cfg)...)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", name, err)
		}
		if err := add(child); err != nil {
			return nil, err
		}
	}

	for _, child := range p.modules {
		p.cfg.Merge(child.Config())
	}
	for _, child := range p.modules {
		child.setConfig(p.cfg)
	}

	if err := p.loadParameters(ctx); err != nil {
		return nil, err
	}
	for _, child := range p.modules {
		p.params.Update(child.Params())
	}

	if err := p.Bind(ctx, s.data); err != nil {
		return nil, err
	}
	logger.Debug("Pipeline assembled.", "pipeline", name, "modules", len(p.modules), "parameters", p.params.Len())
	return p, nil
}

// stringList reads an option holding whitespace separated names or a list.
func stringList(opts block.SectionBlock, name string) ([]string, error) {
	v, err := opts.Get(name, nil)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.Fields(x), nil
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("option %q: element %v is not a string", name, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("option %q: expected a string or a list of strings, got %T", name, v)
}

// Modules returns the children in declared order.
func (p *Pipeline) Modules() []Node {
	return append([]Node(nil), p.modules...)
}

// Children implements Node.
func (p *Pipeline) Children() []Node { return p.Modules() }

// Module returns the direct child with the given name.
func (p *Pipeline) Module(name string) (Node, bool) {
	for _, n := range p.modules {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// PipeBlock returns the working block shared by the children. It is nil after
// Cleanup.
func (p *Pipeline) PipeBlock() *block.DataBlock { return p.pipe }

func (p *Pipeline) setConfig(cfg *config.Block) {
	p.cfg = cfg
	for _, child := range p.modules {
		child.setConfig(cfg)
	}
}

// Bind binds the pipeline to data, derives a fresh pipe block and binds every
// child to it.
func (p *Pipeline) Bind(ctx context.Context, data *block.DataBlock) error {
	if err := p.checkBind(); err != nil {
		return err
	}
	p.bind(data)
	p.pipe = p.data.DataCopy()
	for _, child := range p.modules {
		if err := child.Bind(ctx, p.pipe); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.name, err)
		}
	}
	return nil
}

// Setup sets up every child in order.
func (p *Pipeline) Setup(ctx context.Context) error {
	done, err := p.beginSetup()
	if err != nil || done {
		return err
	}
	if err := p.run(ctx, PhaseSetup, func(ctx context.Context) error {
		for _, child := range p.modules {
			if err := child.Setup(ctx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	p.state = SetUp
	return nil
}

// Execute copies the parameters of the pipeline's own block into the pipe
// block, then executes every child in order.
func (p *Pipeline) Execute(ctx context.Context) error {
	if err := p.checkExecute(); err != nil {
		return err
	}
	if err := p.run(ctx, PhaseExecute, func(ctx context.Context) error {
		for _, item := range p.data.Items(block.Parameters) {
			p.pipe.Set(item.Key.Section, item.Key.Name, item.Value)
		}
		for _, child := range p.modules {
			if err := child.Execute(ctx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	p.state = Executing
	return nil
}

// ExecuteWithValues writes parameter values into the pipeline's own block and
// executes.
func (p *Pipeline) ExecuteWithValues(ctx context.Context, values map[string]float64) error {
	if err := p.checkExecute(); err != nil {
		return err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.data.Set(block.Parameters, name, values[name])
	}
	return p.Execute(ctx)
}

// Cleanup cleans up every child in order and discards the pipe block.
func (p *Pipeline) Cleanup(ctx context.Context) error {
	if err := p.checkCleanup(); err != nil {
		return err
	}
	if err := p.run(ctx, PhaseCleanup, func(ctx context.Context) error {
		for _, child := range p.modules {
			if err := child.Cleanup(ctx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	p.pipe = nil
	p.state = CleanedUp
	return nil
}
