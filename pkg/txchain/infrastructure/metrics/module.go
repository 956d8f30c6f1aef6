package metrics

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	metrics "github.com/jmens/txchain/pkg/txchain/core/metrics"
)

// Module provides PrometheusRecorder (recorded asynchronously, summarised in the log on
// stop) and OpenTelemetryTracer.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorder),
	fx.Provide(func(r *PrometheusRecorder) metrics.MetricRecorder { return r }),
	fx.Decorate(NewAsyncMetricRecorderWrapper),
	fx.Invoke(RegisterSummaryOnStop),

	fx.Provide(NewTracerProvider),
	fx.Provide(func(tp *sdktrace.TracerProvider) trace.TracerProvider { return tp }),
	fx.Provide(fx.Annotate(
		NewOpenTelemetryTracer,
		fx.As(new(metrics.Tracer)),
	)),
)
