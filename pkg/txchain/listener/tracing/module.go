package tracing

import "go.uber.org/fx"

// Module provides the tracing listeners to the pipeline and step listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewTracingPipelineListener,
		fx.ResultTags(`group:"pipelineListeners"`),
	)),
	fx.Provide(fx.Annotate(
		NewTracingStepListener,
		fx.ResultTags(`group:"stepListeners"`),
	)),
)
