// Package metrics declares the observability ports the engine reports to.
// Backends live in infrastructure/metrics.
package metrics

import (
	"context"
	"time"
)

// MetricRecorder records pipeline run metrics.
type MetricRecorder interface {
	// RecordRunEnd records a finished run with its outcome ("Success" or "Error").
	RecordRunEnd(ctx context.Context, pipeline string, outcome string, duration time.Duration)
	// RecordStep records one finished step. status is "COMPLETED", "FAILED" or "SKIPPED".
	RecordStep(ctx context.Context, pipeline string, step string, status string, duration time.Duration)
	// RecordRollback records a rollback attempt. status is "COMPLETED" or "FAILED".
	RecordRollback(ctx context.Context, pipeline string, status string)
}

// Tracer is the tracing port used by the engine.
type Tracer interface {
	// StartRunSpan starts a span covering a whole pipeline run.
	// The returned function ends the span.
	StartRunSpan(ctx context.Context, pipeline string, runID string) (context.Context, func())
	// StartStepSpan starts a span for one step.
	StartStepSpan(ctx context.Context, step string, index int) (context.Context, func())
	// RecordError marks the span in ctx as failed.
	RecordError(ctx context.Context, module string, err error)
	// RecordEvent adds an event to the span in ctx.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
