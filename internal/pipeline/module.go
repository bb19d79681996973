// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the parts of a node shared by modules and pipelines:
// configuration, parameters, binding, copy-back and the guarded lifecycle
// call.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/param"
)

// Node is a stage in the pipeline tree. Module and Pipeline are the only
// implementations.
type Node interface {
	Name() string
	Type() string
	Kind() Kind
	State() State
	Config() *config.Block
	Options() block.SectionBlock
	Params() *param.Block
	Data() *block.DataBlock
	Children() []Node

	Bind(ctx context.Context, data *block.DataBlock) error
	Setup(ctx context.Context) error
	Execute(ctx context.Context) error
	Cleanup(ctx context.Context) error

	setConfig(cfg *config.Block)
}

type base struct {
	name     string
	typ      string
	kind     Kind
	state    State
	cfg      *config.Block
	params   *param.Block
	rename   *block.Mapping
	copyBack *block.Mapping
	data     *block.DataBlock

	libs     Libraries
	baseDir  string
	recorder Recorder
}

func (b *base) Name() string          { return b.name }
func (b *base) Type() string          { return b.typ }
func (b *base) Kind() Kind            { return b.kind }
func (b *base) State() State          { return b.state }
func (b *base) Config() *config.Block { return b.cfg }
func (b *base) Params() *param.Block  { return b.params }

// Data returns the block the node is bound to, seen through its rename
// mapping.
func (b *base) Data() *block.DataBlock { return b.data }

// Options returns the node's configuration section.
func (b *base) Options() block.SectionBlock { return b.cfg.Options(b.name) }

// Rename returns the mapping applied to the bound block.
func (b *base) Rename() *block.Mapping { return b.rename }

// CopyBack returns the rules applied after each successful setup and execute.
func (b *base) CopyBack() *block.Mapping { return b.copyBack }

func (b *base) String() string {
	return fmt.Sprintf("%s [%s]", b.typ, b.name)
}

func (b *base) configure(s *settings) {
	b.cfg = s.cfg
	if b.cfg == nil {
		b.cfg = config.New()
	}
	for k, v := range s.options {
		b.cfg.Set(b.name, k, v)
	}
	b.libs = s.libs
	b.baseDir = s.baseDir
	b.recorder = s.recorder
	b.state = Configured
}

func (b *base) setConfig(cfg *config.Block) {
	b.cfg = cfg
}

func (b *base) path(p string) string {
	if filepath.IsAbs(p) || b.baseDir == "" {
		return p
	}
	return filepath.Join(b.baseDir, p)
}

// loadParameters reads common and specific parameter files. Specific
// parameters are suffixed with the module name and aliased back to their bare
// name, so two modules may declare the same bare name without colliding.
func (b *base) loadParameters(ctx context.Context) error {
	opts := b.Options()
	b.params = param.NewBlock()

	common, err := opts.GetString("common_parameters", "")
	if err != nil {
		return fmt.Errorf("%w: module %s: %v", ErrModule, b.name, err)
	}
	if common != "" {
		params, err := param.Load(ctx, b.path(common))
		if err != nil {
			return fmt.Errorf("%w: module %s: %v", ErrModule, b.name, err)
		}
		b.params.Update(params)
	}

	aliases := block.NewMapping()
	specific, err := opts.GetString("specific_parameters", "")
	if err != nil {
		return fmt.Errorf("%w: module %s: %v", ErrModule, b.name, err)
	}
	if specific != "" {
		params, err := param.Load(ctx, b.path(specific))
		if err != nil {
			return fmt.Errorf("%w: module %s: %v", ErrModule, b.name, err)
		}
		for _, p := range params.All() {
			bare := p.Name
			p.AddSuffix(b.name)
			if err := aliases.Add(block.K(block.Parameters, bare), block.K(block.Parameters, p.Name)); err != nil {
				return err
			}
			b.params.Set(p)
		}
	}

	if b.rename, err = b.mappingOption("mapping"); err != nil {
		return err
	}
	b.rename.Update(aliases)
	if b.copyBack, err = b.mappingOption("copy"); err != nil {
		return err
	}
	return nil
}

func (b *base) mappingOption(name string) (*block.Mapping, error) {
	rules, err := b.Options().GetString(name, "")
	if err != nil {
		return nil, fmt.Errorf("%w: module %s: %v", ErrModule, b.name, err)
	}
	m, err := block.ParseMapping(rules)
	if err != nil {
		return nil, fmt.Errorf("module %s option %s: %w", b.name, name, err)
	}
	return m, nil
}

// bind attaches the node to data through its rename mapping and registers the
// current parameter values.
func (b *base) bind(data *block.DataBlock) {
	if data == nil {
		data = block.New()
	}
	b.data = data.View(b.rename)
	for _, p := range b.params.All() {
		b.data.Set(block.Parameters, p.Name, p.Value)
	}
	b.state = Bound
}

func (b *base) checkBind() error {
	if b.state != Configured && b.state != Bound {
		return lifecycleError("bind", b.name, b.state)
	}
	return nil
}

// beginSetup reports whether setup has already run.
func (b *base) beginSetup() (bool, error) {
	switch b.state {
	case SetUp, Executing:
		return true, nil
	case Bound:
		return false, nil
	}
	return false, lifecycleError("set up", b.name, b.state)
}

func (b *base) checkExecute() error {
	if b.state != SetUp && b.state != Executing {
		return lifecycleError("execute", b.name, b.state)
	}
	return nil
}

func (b *base) checkCleanup() error {
	if b.state != Bound && b.state != SetUp && b.state != Executing {
		return lifecycleError("clean up", b.name, b.state)
	}
	return nil
}

// applyCopyBack copies every canonical key of a copy rule to its alias. A
// section rule copies every name of the section.
func (b *base) applyCopyBack() error {
	for _, e := range b.copyBack.Entries() {
		if e.Canonical.IsSection() {
			for _, it := range b.data.Items(e.Canonical.Section) {
				b.data.Set(e.Alias.Section, it.Key.Name, it.Value)
			}
			continue
		}
		v, err := b.data.Get(e.Canonical.Section, e.Canonical.Name)
		if err != nil {
			return fmt.Errorf("copy %s to %s: %w", e.Canonical, e.Alias, err)
		}
		b.data.Set(e.Alias.Section, e.Alias.Name, v)
	}
	return nil
}

// run performs one lifecycle call with the module name attached to the
// logger, applies copy-back after setup and execute, and reports to the
// recorder.
func (b *base) run(ctx context.Context, phase Phase, fn func(context.Context) error) error {
	ctx = ctxlog.With(ctx, "module", b.name)
	start := time.Now()

	err := fn(ctx)
	if err == nil && phase != PhaseCleanup {
		err = b.applyCopyBack()
	}
	elapsed := time.Since(start)
	if b.recorder != nil {
		b.recorder.Observe(b.name, phase, elapsed, err)
	}
	if err != nil {
		return fmt.Errorf("module %s: %s: %w", b.name, phase, err)
	}
	ctxlog.FromContext(ctx).Debug("Lifecycle phase complete.", "phase", phase, "duration", elapsed)
	return nil
}

// Module is a leaf node whose lifecycle is implemented by a Stage.
type Module struct {
	base
	stage Stage
}

// NewModule configures a module, loads its parameters and binds it.
func NewModule(ctx context.Context, name string, stage Stage, opts ...Option) (*Module, error) {
	s := newSettings(opts)
	m := &Module{stage: stage}
	m.name = name
	m.typ, m.kind = s.typ, s.kind
	if m.typ == "" {
		m.typ, m.kind = typeName(stage), KindClass
	}
	m.configure(s)
	ctxlog.FromContext(ctx).Info("Init module.", "module", name, "type", m.typ)

	if err := m.loadParameters(ctx); err != nil {
		return nil, err
	}
	m.bind(s.data)
	return m, nil
}

// Stage returns the module's behaviour.
func (m *Module) Stage() Stage { return m.stage }

// Children returns nil: a module is a leaf.
func (m *Module) Children() []Node { return nil }

// Bind rebinds the module to data. It is only allowed before setup.
func (m *Module) Bind(_ context.Context, data *block.DataBlock) error {
	if err := m.checkBind(); err != nil {
		return err
	}
	m.bind(data)
	return nil
}

// Setup runs the stage's setup once; further calls are no-ops.
func (m *Module) Setup(ctx context.Context) error {
	done, err := m.beginSetup()
	if err != nil || done {
		return err
	}
	if err := m.run(ctx, PhaseSetup, func(ctx context.Context) error {
		return m.stage.Setup(ctx, m)
	}); err != nil {
		return err
	}
	m.state = SetUp
	return nil
}

// Execute runs the stage's execute. It requires a prior Setup.
func (m *Module) Execute(ctx context.Context) error {
	if err := m.checkExecute(); err != nil {
		return err
	}
	if err := m.run(ctx, PhaseExecute, func(ctx context.Context) error {
		return m.stage.Execute(ctx, m)
	}); err != nil {
		return err
	}
	m.state = Executing
	return nil
}

// Cleanup runs the stage's cleanup and releases the data block. The module
// cannot be used afterwards.
func (m *Module) Cleanup(ctx context.Context) error {
	if err := m.checkCleanup(); err != nil {
		return err
	}
	if err := m.run(ctx, PhaseCleanup, func(ctx context.Context) error {
		return m.stage.Cleanup(ctx, m)
	}); err != nil {
		return err
	}
	m.data = nil
	m.state = CleanedUp
	return nil
}
