package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	metrics "github.com/jmens/txchain/pkg/txchain/core/metrics"
	logger "github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// InstrumentationName is the tracer name spans are reported under.
const InstrumentationName = "github.com/jmens/txchain"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer from provider.
func NewOpenTelemetryTracer(provider trace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{tracer: provider.Tracer(InstrumentationName)}
}

// StartRunSpan starts a span for a whole pipeline run.
func (t *OpenTelemetryTracer) StartRunSpan(ctx context.Context, pipeline string, runID string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "pipeline "+pipeline,
		trace.WithAttributes(
			attribute.String("txchain.pipeline", pipeline),
			attribute.String("txchain.run_id", runID),
		),
	)
	return ctx, func() { span.End() }
}

// StartStepSpan starts a child span for one step.
func (t *OpenTelemetryTracer) StartStepSpan(ctx context.Context, step string, index int) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "step "+step,
		trace.WithAttributes(
			attribute.String("txchain.step", step),
			attribute.Int("txchain.step_index", index),
		),
	)
	return ctx, func() { span.End() }
}

// RecordError records err on the current span and marks it as failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		logger.Debugf("Tracer: RecordError without active span in module %s: %v", module, err)
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("txchain.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent adds an event to the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttribute(key string, v interface{}) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case bool:
		return attribute.Bool(key, val)
	case float64:
		return attribute.Float64(key, val)
	default:
		return attribute.String(key, fmt.Sprint(val))
	}
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
