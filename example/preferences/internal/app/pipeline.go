// Package app wires the preferences pipeline: its steps, sinks and listeners.
package app

import (
	"go.uber.org/fx"

	"github.com/jmens/txchain/example/preferences/internal/domain/model"
	"github.com/jmens/txchain/example/preferences/internal/schema"
	"github.com/jmens/txchain/example/preferences/internal/step"
	"github.com/jmens/txchain/pkg/txchain/component/diagnostics"
	config "github.com/jmens/txchain/pkg/txchain/core/config"
	metrics "github.com/jmens/txchain/pkg/txchain/core/metrics"
	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/engine"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// ExecutorParams defines the dependencies of NewExecutor. The listener groups are the
// ones filled by listener.Module.
type ExecutorParams struct {
	fx.In
	Config            *config.Config
	Provider          tx.ConnectionProvider
	Sink              diagnostics.Sink
	Recorder          metrics.MetricRecorder    `optional:"true"`
	Tracer            metrics.Tracer            `optional:"true"`
	PipelineListeners []engine.PipelineListener `group:"pipelineListeners"`
	StepListeners     []engine.StepListener     `group:"stepListeners"`
}

// NewExecutor builds the preferences pipeline for the provider's dialect.
func NewExecutor(p ExecutorParams) (*engine.Executor, error) {
	ddl, err := schema.Statements(p.Provider.Type())
	if err != nil {
		return nil, err
	}

	pipeline := p.Config.Txchain.Pipeline
	recorder := p.Recorder
	if recorder == nil {
		recorder = metrics.NewNoOpMetricRecorder()
	}
	tracer := p.Tracer
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}

	compensatorOpts := []engine.CompensatorOption{engine.WithRollbackRecorder(recorder)}
	if pipeline.DumpAfterRollback {
		compensatorOpts = append(compensatorOpts, engine.WithInspection(step.Inspection(p.Sink)))
	}

	if pipeline.ForceDBError {
		logger.Warnf("Pipeline '%s': faulty insert is enabled, the run is expected to fail.", pipeline.Name)
	}

	return engine.NewExecutor(
		pipeline.Name,
		p.Provider,
		step.Pipeline(p.Sink, ddl, pipeline.ForceDBError),
		engine.WithPipelineListeners(p.PipelineListeners...),
		engine.WithStepListeners(p.StepListeners...),
		engine.WithMetricRecorder(recorder),
		engine.WithTracer(tracer),
		engine.WithCompensator(engine.NewCompensator(pipeline.Name, compensatorOpts...)),
	), nil
}

// NewSink combines the console sink with a parquet export of the joined rows when
// txchain.diagnostics.parquet_path is set.
func NewSink(cfg *config.Config, console *diagnostics.ConsoleSink) diagnostics.Sink {
	sinks := []diagnostics.Sink{console}
	if path := cfg.Txchain.Diagnostics.ParquetPath; path != "" {
		sinks = append(sinks, diagnostics.NewParquetSink[model.UserPreference](path))
	}
	return diagnostics.NewMultiSink(sinks...)
}

// Module provides the pipeline executor and its diagnostics sink.
var Module = fx.Options(
	fx.Provide(NewSink),
	fx.Provide(NewExecutor),
)
