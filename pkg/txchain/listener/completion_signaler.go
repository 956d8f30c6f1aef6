package listener

import (
	"context"
	"sync"

	config "github.com/jmens/txchain/pkg/txchain/core/config"
	"github.com/jmens/txchain/pkg/txchain/engine"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// Message is the terminal notification of a run.
type Message struct {
	// Address is the named channel the message was published on.
	Address string
	// Body is engine.OutcomeSuccess or engine.OutcomeError.
	Body string
	// RunID identifies the run that produced the message.
	RunID string
}

// CompletionSignaler is a PipelineListener that publishes exactly one Message when a run
// ends. The channel returned by Done receives the message and is closed afterwards.
//
// A signaler serves a single run. When it is shared by an executor that runs again, later
// runs are logged and not published; create one signaler per run to observe each of them.
type CompletionSignaler struct {
	address string
	done    chan Message
	once    sync.Once
}

// NewCompletionSignaler creates a signaler publishing on address.
func NewCompletionSignaler(address string) *CompletionSignaler {
	if address == "" {
		address = config.DefaultCompletionAddress
	}
	return &CompletionSignaler{
		address: address,
		done:    make(chan Message, 1),
	}
}

// NewCompletionSignalerFromConfig creates a signaler for txchain.pipeline.completion_address.
func NewCompletionSignalerFromConfig(cfg *config.Config) *CompletionSignaler {
	return NewCompletionSignaler(cfg.Txchain.Pipeline.CompletionAddress)
}

// Address returns the address messages are published on.
func (l *CompletionSignaler) Address() string {
	return l.address
}

// Done returns the channel receiving the terminal message.
func (l *CompletionSignaler) Done() <-chan Message {
	return l.done
}

// BeforePipeline does nothing.
func (l *CompletionSignaler) BeforePipeline(ctx context.Context, execution *engine.Execution) {}

// AfterPipeline publishes the run's outcome. Only the first call has an effect.
func (l *CompletionSignaler) AfterPipeline(ctx context.Context, execution *engine.Execution) {
	body := engine.OutcomeError
	if result, ok := execution.Result(); ok {
		body = result.Outcome()
	}

	fired := false
	l.once.Do(func() {
		fired = true
		logger.Infof("CompletionSignaler: pipeline '%s' (run %s) finished, sending '%s' to '%s'.",
			execution.PipelineName, execution.RunID, body, l.address)
		l.done <- Message{Address: l.address, Body: body, RunID: execution.RunID}
		close(l.done)
	})
	if !fired {
		logger.Warnf("CompletionSignaler: ignoring second completion of pipeline '%s' (run %s).", execution.PipelineName, execution.RunID)
	}
}

var _ engine.PipelineListener = (*CompletionSignaler)(nil)
