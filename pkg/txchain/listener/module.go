package listener

import (
	"go.uber.org/fx"

	"github.com/jmens/txchain/pkg/txchain/engine"
	"github.com/jmens/txchain/pkg/txchain/listener/logging"
	"github.com/jmens/txchain/pkg/txchain/listener/tracing"
)

// PipelineListenerGroup and StepListenerGroup are the fx value groups the executor
// collects its listeners from.
const (
	PipelineListenerGroup = "pipelineListeners"
	StepListenerGroup     = "stepListeners"
)

// Module provides the CompletionSignaler, both as itself (for waiting on Done) and as a
// member of the pipeline listener group, plus the logging and tracing listeners.
// The tracing listeners need a metrics.Tracer in the graph.
var Module = fx.Options(
	fx.Provide(NewCompletionSignalerFromConfig),
	fx.Provide(fx.Annotate(
		func(s *CompletionSignaler) engine.PipelineListener { return s },
		fx.ResultTags(`group:"`+PipelineListenerGroup+`"`),
	)),
	logging.Module,
	tracing.Module,
)
