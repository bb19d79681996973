package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/pipeline"
	"gonum.org/v1/gonum/stat"
)

// Evaluation is one execution of the root pipeline.
type Evaluation struct {
	Label    string
	Values   map[string]float64
	LogPrior float64
	// Loglkl is likelihood.loglkl of the pipe block; HasLoglkl is false when
	// no stage wrote it.
	Loglkl    float64
	HasLoglkl bool
}

// Report summarises a Run.
type Report struct {
	RunID       string
	Evaluations []Evaluation
	// Sample statistics of Loglkl over the "sample" evaluations.
	LoglklMean   float64
	LoglklStdDev float64
}

// Run builds the root pipeline and drives it through its lifecycle.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.startMetricsServer()
	defer func() {
		err = errors.Join(err, a.closeMetricsServer())
	}()

	root, err := pipeline.NewPipeline(ctx, a.config.Pipeline,
		pipeline.WithConfig(a.cfg),
		pipeline.WithRegistry(a.registry),
		pipeline.WithBaseDir(a.baseDir()),
		pipeline.WithRecorder(a.recorder),
	)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	a.logger.Info("Pipeline assembled.", "pipeline", root.Name(), "modules", len(root.Modules()), "varied_parameters", len(root.Params().Varied()))

	if a.config.PipeGraph != "" {
		if err := a.writePipeGraph(root); err != nil {
			return err
		}
	}

	a.report = &Report{RunID: a.runID}
	err = a.evaluate(ctx, root)
	if err == nil && a.config.SaveState != "" {
		err = a.saveState(root.PipeBlock())
	}

	a.logger.Debug("Cleaning up pipeline.")
	if cerr := root.Cleanup(ctx); cerr != nil {
		return errors.Join(err, fmt.Errorf("cleanup failed: %w", cerr))
	}
	if err != nil {
		return err
	}
	a.logger.Info("🏁 Execution finished.", "evaluations", len(a.report.Evaluations))
	return nil
}

func (a *App) evaluate(ctx context.Context, root *pipeline.Pipeline) error {
	a.logger.Info("🚀 Setting up pipeline...")
	if err := root.Setup(ctx); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	if err := a.execute(ctx, root, "initial", root.Params().Values()); err != nil {
		return err
	}

	if len(a.config.Overrides) > 0 {
		values := root.Params().Values()
		for name, v := range a.config.Overrides {
			if !root.Params().Has(name) {
				a.logger.Warn("Override of an unknown parameter.", "parameter", name)
			}
			values[name] = v
		}
		if err := a.execute(ctx, root, "override", values); err != nil {
			return err
		}
	}

	if a.config.Samples > 0 {
		src := rand.NewPCG(a.config.Seed, a.config.Seed)
		var loglkls []float64
		for i := 0; i < a.config.Samples; i++ {
			values, err := root.Params().SampleRef(src)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			if err := a.execute(ctx, root, "sample", values); err != nil {
				return err
			}
			if last := a.report.Evaluations[len(a.report.Evaluations)-1]; last.HasLoglkl {
				loglkls = append(loglkls, last.Loglkl)
			}
		}
		if len(loglkls) > 0 {
			a.report.LoglklMean, a.report.LoglklStdDev = stat.MeanStdDev(loglkls, nil)
			a.logger.Info("Sampling finished.", "samples", a.config.Samples, "loglkl_mean", a.report.LoglklMean, "loglkl_stddev", a.report.LoglklStdDev)
		}
	}
	return nil
}

func (a *App) execute(ctx context.Context, root *pipeline.Pipeline, label string, values map[string]float64) error {
	if err := root.ExecuteWithValues(ctx, values); err != nil {
		return fmt.Errorf("%s evaluation failed: %w", label, err)
	}
	a.recorder.Evaluated()

	ev := Evaluation{Label: label, Values: values, LogPrior: root.Params().LogPrior(values)}
	if v, err := root.PipeBlock().GetFloat(block.Likelihood, "loglkl"); err == nil {
		ev.Loglkl, ev.HasLoglkl = v, true
	} else if !errors.Is(err, block.ErrNotFound) {
		return fmt.Errorf("%s evaluation: %w", label, err)
	}
	a.report.Evaluations = append(a.report.Evaluations, ev)

	args := []any{"label", label, "logprior", ev.LogPrior}
	if ev.HasLoglkl {
		args = append(args, "loglkl", ev.Loglkl)
	}
	a.logger.Info("Pipeline evaluated.", args...)
	return nil
}

func (a *App) writePipeGraph(root *pipeline.Pipeline) error {
	f, err := os.Create(a.config.PipeGraph)
	if err != nil {
		return fmt.Errorf("failed to create pipeline graph file: %w", err)
	}
	defer f.Close()
	if err := pipeline.WriteDOT(f, root); err != nil {
		return fmt.Errorf("failed to write pipeline graph: %w", err)
	}
	a.logger.Info("Pipeline graph written.", "path", a.config.PipeGraph)
	return f.Close()
}

func (a *App) saveState(pipe *block.DataBlock) error {
	f, err := os.Create(a.config.SaveState)
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer f.Close()
	if err := pipe.Save(f); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	a.logger.Info("Pipe block state saved.", "path", a.config.SaveState)
	return f.Close()
}
