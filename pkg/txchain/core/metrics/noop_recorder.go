package metrics

import (
	"context"
	"time"
)

// NoOpMetricRecorder discards every metric.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder returns a MetricRecorder that records nothing.
func NewNoOpMetricRecorder() MetricRecorder { return &NoOpMetricRecorder{} }

func (r *NoOpMetricRecorder) RecordRunEnd(context.Context, string, string, time.Duration)     {}
func (r *NoOpMetricRecorder) RecordStep(context.Context, string, string, string, time.Duration) {}
func (r *NoOpMetricRecorder) RecordRollback(context.Context, string, string)                  {}

// NoOpTracer starts no spans.
type NoOpTracer struct{}

// NewNoOpTracer returns a Tracer that does nothing.
func NewNoOpTracer() Tracer { return &NoOpTracer{} }

func (t *NoOpTracer) StartRunSpan(ctx context.Context, _ string, _ string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartStepSpan(ctx context.Context, _ string, _ int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(context.Context, string, error)                    {}
func (t *NoOpTracer) RecordEvent(context.Context, string, map[string]interface{}) {}

var (
	_ MetricRecorder = (*NoOpMetricRecorder)(nil)
	_ Tracer         = (*NoOpTracer)(nil)
)
