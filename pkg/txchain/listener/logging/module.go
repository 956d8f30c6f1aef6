package logging

import (
	"go.uber.org/fx"

	"github.com/jmens/txchain/pkg/txchain/engine"
)

// Module provides the logging listeners to the pipeline and step listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingPipelineListener,
		fx.As(new(engine.PipelineListener)),
		fx.ResultTags(`group:"pipelineListeners"`),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingStepListener,
		fx.As(new(engine.StepListener)),
		fx.ResultTags(`group:"stepListeners"`),
	)),
)
