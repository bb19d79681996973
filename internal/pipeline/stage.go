package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
)

// Stage is the behaviour behind a Module. Implementations read options from
// m.Options() and state from m.Data(), and write their results to m.Data().
type Stage interface {
	Setup(ctx context.Context, m *Module) error
	Execute(ctx context.Context, m *Module) error
	Cleanup(ctx context.Context, m *Module) error
}

// StepFunc is a free lifecycle function. It sees the configuration read-only.
// The returned status is logged when non-zero but never enforced; only the
// error aborts the pipeline.
type StepFunc func(ctx context.Context, name string, cfg config.Reader, data *block.DataBlock) (int, error)

// Factory constructs a node. Native stage classes and the core Pipeline are
// registered as factories.
type Factory func(ctx context.Context, name string, opts ...Option) (Node, error)

// PipelineClass is the Factory of a nested Pipeline.
func PipelineClass(ctx context.Context, name string, opts ...Option) (Node, error) {
	p, err := NewPipeline(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Class turns a Stage constructor into a Factory building a Module.
func Class(newStage func() Stage) Factory {
	return func(ctx context.Context, name string, opts ...Option) (Node, error) {
		m, err := NewModule(ctx, name, newStage(), opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Kind discriminates how a stage was resolved.
type Kind int

const (
	// KindClass is a registered native factory.
	KindClass Kind = iota + 1
	// KindFunctions is a triple of registered free functions.
	KindFunctions
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunctions:
		return "functions"
	default:
		return "unknown"
	}
}

// Library is a named unit stages are resolved from.
type Library struct {
	Name      string
	Classes   map[string]Factory
	Functions map[string]StepFunc
}

// Libraries looks libraries up by name.
type Libraries interface {
	Library(name string) (*Library, bool)
}

// Recorder observes every completed lifecycle call.
type Recorder interface {
	Observe(module string, phase Phase, elapsed time.Duration, err error)
}

// funcStage binds three free functions as a Stage.
type funcStage struct {
	setup, execute, cleanup StepFunc
}

func (f *funcStage) Setup(ctx context.Context, m *Module) error {
	return f.call(ctx, m, PhaseSetup, f.setup)
}

func (f *funcStage) Execute(ctx context.Context, m *Module) error {
	return f.call(ctx, m, PhaseExecute, f.execute)
}

func (f *funcStage) Cleanup(ctx context.Context, m *Module) error {
	return f.call(ctx, m, PhaseCleanup, f.cleanup)
}

func (f *funcStage) call(ctx context.Context, m *Module, phase Phase, fn StepFunc) error {
	status, err := fn(ctx, m.Name(), m.Config().ReadOnly(), m.Data())
	if err != nil {
		return err
	}
	if status != 0 {
		ctxlog.FromContext(ctx).Warn("Stage function returned non-zero status.", "phase", phase, "status", status)
	}
	return nil
}

func typeName(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}
