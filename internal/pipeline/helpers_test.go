package pipeline

import (
	"context"
	"errors"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/testutil"
)

// testLibs is a map-backed Libraries.
type testLibs map[string]*Library

func (l testLibs) Library(name string) (*Library, bool) {
	lib, ok := l[name]
	return lib, ok
}

var errBoom = errors.New("boom")

// recordStage logs every call and optionally fails one phase.
type recordStage struct {
	log    *testutil.CallLog
	failOn Phase
}

func (s *recordStage) call(m *Module, phase Phase) error {
	s.log.Add(m.Name(), string(phase))
	if s.failOn == phase {
		return errBoom
	}
	return nil
}

func (s *recordStage) Setup(_ context.Context, m *Module) error   { return s.call(m, PhaseSetup) }
func (s *recordStage) Execute(_ context.Context, m *Module) error { return s.call(m, PhaseExecute) }
func (s *recordStage) Cleanup(_ context.Context, m *Module) error { return s.call(m, PhaseCleanup) }

// lineStage writes model.y = a * [1 2 3].
type lineStage struct{}

func (lineStage) Setup(context.Context, *Module) error   { return nil }
func (lineStage) Cleanup(context.Context, *Module) error { return nil }

func (lineStage) Execute(_ context.Context, m *Module) error {
	a, err := m.Data().GetFloat(block.Parameters, "a")
	if err != nil {
		return err
	}
	m.Data().Set("model", "y", block.Vector(a, 2*a, 3*a))
	return nil
}

// chi2Stage writes likelihood.loglkl = -chi2/2 of model.y against data.y.
type chi2Stage struct{}

func (chi2Stage) Setup(context.Context, *Module) error   { return nil }
func (chi2Stage) Cleanup(context.Context, *Module) error { return nil }

func (chi2Stage) Execute(_ context.Context, m *Module) error {
	model, err := m.Data().GetFloatArray1D("model", "y")
	if err != nil {
		return err
	}
	data, err := m.Data().GetFloatArray1D("data", "y")
	if err != nil {
		return err
	}
	chi2 := 0.0
	for i := range data.Data {
		d := model.Data[i] - data.Data[i]
		chi2 += d * d
	}
	m.Data().Set("likelihood", "loglkl", -chi2/2)
	return nil
}

func testLibrary(log *testutil.CallLog) testLibs {
	stepFn := func(phase Phase) StepFunc {
		return func(_ context.Context, name string, _ config.Reader, _ *block.DataBlock) (int, error) {
			log.Add(name, string(phase))
			return 0, nil
		}
	}
	return testLibs{
		"test": {
			Name: "test",
			Classes: map[string]Factory{
				"Line":   Class(func() Stage { return lineStage{} }),
				"Chi2":   Class(func() Stage { return chi2Stage{} }),
				"Record": Class(func() Stage { return &recordStage{log: log} }),
			},
			Functions: map[string]StepFunc{
				"setup":   stepFn(PhaseSetup),
				"execute": stepFn(PhaseExecute),
				"cleanup": stepFn(PhaseCleanup),
				"run":     stepFn(PhaseExecute),
			},
		},
		"default": {
			Name:    "default",
			Classes: map[string]Factory{DefaultClass: Class(func() Stage { return &recordStage{log: log} })},
		},
		"core": {
			Name:    "core",
			Classes: map[string]Factory{"Pipeline": PipelineClass},
		},
	}
}
