// Package tracing provides listeners that annotate the run span with pipeline events.
package tracing

import (
	"context"

	"github.com/jmens/txchain/pkg/txchain/core/metrics"
	"github.com/jmens/txchain/pkg/txchain/engine"
)

// TracingPipelineListener adds the terminal outcome of a run to its span.
type TracingPipelineListener struct {
	tracer metrics.Tracer
}

// NewTracingPipelineListener creates a TracingPipelineListener.
func NewTracingPipelineListener(tracer metrics.Tracer) engine.PipelineListener {
	return &TracingPipelineListener{tracer: tracer}
}

func (l *TracingPipelineListener) BeforePipeline(ctx context.Context, execution *engine.Execution) {}

func (l *TracingPipelineListener) AfterPipeline(ctx context.Context, execution *engine.Execution) {
	outcome := engine.OutcomeError
	if result, ok := execution.Result(); ok {
		outcome = result.Outcome()
	}
	attrs := map[string]interface{}{
		"pipeline.outcome":            outcome,
		"pipeline.steps":              len(execution.Steps),
		"pipeline.rollback_attempted": execution.RollbackAttempted,
	}
	if execution.RollbackErr != nil {
		attrs["pipeline.rollback_error"] = execution.RollbackErr.Error()
	}
	l.tracer.RecordEvent(ctx, "pipeline.finished", attrs)
}

var _ engine.PipelineListener = (*TracingPipelineListener)(nil)

// TracingStepListener adds one event per finished step.
type TracingStepListener struct {
	tracer metrics.Tracer
}

// NewTracingStepListener creates a TracingStepListener.
func NewTracingStepListener(tracer metrics.Tracer) engine.StepListener {
	return &TracingStepListener{tracer: tracer}
}

func (l *TracingStepListener) BeforeStep(ctx context.Context, execution *engine.Execution, step *engine.StepExecution) {
}

func (l *TracingStepListener) AfterStep(ctx context.Context, execution *engine.Execution, step *engine.StepExecution) {
	attrs := map[string]interface{}{
		"step.name":        step.Name,
		"step.index":       step.Index,
		"step.status":      string(step.Status),
		"step.duration_ms": step.Duration().Milliseconds(),
	}
	if step.Err != nil {
		attrs["step.error"] = step.Err.Error()
	}
	l.tracer.RecordEvent(ctx, "step.finished", attrs)
}

var _ engine.StepListener = (*TracingStepListener)(nil)
