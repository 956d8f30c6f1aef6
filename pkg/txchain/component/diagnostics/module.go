package diagnostics

import "go.uber.org/fx"

// Module provides the ConsoleSink. Applications combine it with typed sinks such as
// ParquetSink and provide the resulting Sink.
var Module = fx.Options(
	fx.Provide(NewConsoleSink),
)
