package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jmens/txchain/pkg/txchain/core/metrics"
	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/support/util/exception"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// Executor runs a fixed chain of steps inside one transaction per run.
// An Executor may be reused; every Run acquires its own connection. Listeners are shared
// by all runs, so a listener that only handles one run (such as a completion signaler)
// must not be registered on an executor that runs more than once.
type Executor struct {
	name              string
	provider          tx.ConnectionProvider
	steps             []Step
	compensator       *Compensator
	pipelineListeners []PipelineListener
	stepListeners     []StepListener
	recorder          metrics.MetricRecorder
	tracer            metrics.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithPipelineListeners registers listeners notified at the start and end of each run.
func WithPipelineListeners(listeners ...PipelineListener) Option {
	return func(e *Executor) { e.pipelineListeners = append(e.pipelineListeners, listeners...) }
}

// WithStepListeners registers listeners notified around each step.
func WithStepListeners(listeners ...StepListener) Option {
	return func(e *Executor) { e.stepListeners = append(e.stepListeners, listeners...) }
}

// WithMetricRecorder sets the metric recorder.
func WithMetricRecorder(recorder metrics.MetricRecorder) Option {
	return func(e *Executor) { e.recorder = recorder }
}

// WithTracer sets the tracer.
func WithTracer(tracer metrics.Tracer) Option {
	return func(e *Executor) { e.tracer = tracer }
}

// WithCompensator replaces the default Compensator.
func WithCompensator(c *Compensator) Option {
	return func(e *Executor) { e.compensator = c }
}

// NewExecutor creates an Executor for the named pipeline.
//
// Parameters:
//
//	name: The pipeline name used in logs, metrics and spans.
//	provider: Supplies one fresh transactional connection per run.
//	steps: The chain, run in order. Each step receives the previous step's value.
//	opts: Listeners, recorder, tracer and compensator overrides.
//
// Returns:
//
//	An Executor. Without WithCompensator it compensates with a Compensator that records
//	rollbacks on the configured recorder.
func NewExecutor(name string, provider tx.ConnectionProvider, steps []Step, opts ...Option) *Executor {
	e := &Executor{
		name:     name,
		provider: provider,
		steps:    steps,
		recorder: metrics.NewNoOpMetricRecorder(),
		tracer:   metrics.NewNoOpTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.compensator == nil {
		e.compensator = NewCompensator(name, WithRollbackRecorder(e.recorder))
	}
	return e
}

// Name returns the pipeline name.
func (e *Executor) Name() string {
	return e.name
}

// Run executes one pipeline run and returns its terminal result.
// Listeners receive AfterPipeline exactly once before Run returns.
func (e *Executor) Run(ctx context.Context) Result {
	execution := NewExecution(e.name)
	return e.RunExecution(ctx, execution)
}

// RunExecution is Run with a caller-supplied execution record, which must be new.
func (e *Executor) RunExecution(ctx context.Context, execution *Execution) Result {
	ctx, endSpan := e.tracer.StartRunSpan(ctx, e.name, execution.RunID)
	defer endSpan()

	logger.Infof("Pipeline '%s' (run %s) started with %d steps.", e.name, execution.RunID, len(e.steps))
	for _, l := range e.pipelineListeners {
		l.BeforePipeline(ctx, execution)
	}

	conn, err := e.provider.Acquire(ctx)
	if err != nil {
		if _, ok := exception.KindOf(err); !ok {
			err = exception.NewConnectionFailure("provider", "failed to acquire connection", err)
		}
		return e.fail(ctx, execution, nil, err)
	}

	e.mustTransition(execution, StateRunning)
	value, err := e.runSteps(ctx, execution, conn)
	if err != nil {
		return e.fail(ctx, execution, conn, err)
	}

	e.mustTransition(execution, StateCommitting)
	if err := conn.Commit(ctx); err != nil {
		return e.fail(ctx, execution, conn, exception.NewCommitFailure("executor", err))
	}
	logger.Infof("Pipeline '%s' (run %s) committed.", e.name, execution.RunID)
	return e.finish(ctx, execution, conn, Success(value))
}

func (e *Executor) runSteps(ctx context.Context, execution *Execution, conn tx.Connection) (Value, error) {
	var value Value
	for i, step := range e.steps {
		execution.StepIndex = i
		se := &StepExecution{Name: step.Name, Index: i, Status: StepStarted, Input: value, StartTime: time.Now()}
		execution.Steps = append(execution.Steps, se)

		for _, l := range e.stepListeners {
			l.BeforeStep(ctx, execution, se)
		}

		out, err := e.runStep(ctx, i, step, conn, value)
		switch {
		case err != nil:
			se.finish(StepFailed, nil, err)
		case step.Skipped():
			se.finish(StepSkipped, out, nil)
		default:
			se.finish(StepCompleted, out, nil)
		}
		e.recorder.RecordStep(ctx, e.name, step.Name, string(se.Status), se.Duration())

		for _, l := range e.stepListeners {
			l.AfterStep(ctx, execution, se)
		}
		if err != nil {
			return nil, exception.NewStepFailure(step.Name, err)
		}
		value = out
	}
	return value, nil
}

// runStep runs one step in its own span. A cancelled context or a panic counts as the
// step's failure so that the run still ends through the compensator.
func (e *Executor) runStep(ctx context.Context, index int, step Step, conn tx.Connection, prev Value) (out Value, err error) {
	stepCtx, endSpan := e.tracer.StartStepSpan(ctx, step.Name, index)
	defer endSpan()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("step '%s' panicked: %v", step.Name, r)
		}
		if err != nil {
			e.tracer.RecordError(stepCtx, step.Name, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return step.Execute(stepCtx, conn, prev)
}

// fail moves the run to Failing, compensates if the transaction is still open, and
// finishes with cause. conn may be nil when acquisition failed.
func (e *Executor) fail(ctx context.Context, execution *Execution, conn tx.Connection, cause error) Result {
	e.mustTransition(execution, StateFailing)
	logger.Errorf("Pipeline '%s' (run %s) failed: %v", e.name, execution.RunID, cause)

	if conn != nil && conn.State() == tx.StateOpen {
		e.mustTransition(execution, StateRollingBack)
		execution.RollbackAttempted = true
		if rbErr := e.compensator.Compensate(ctx, conn); rbErr != nil {
			execution.RollbackErr = rbErr
			e.tracer.RecordError(ctx, "compensator", rbErr)
		}
	}
	return e.finish(ctx, execution, conn, Failure(cause))
}

// finish is the single terminal path of a run: it closes the connection, assigns the
// result and notifies the pipeline listeners.
func (e *Executor) finish(ctx context.Context, execution *Execution, conn tx.Connection, result Result) Result {
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Warnf("Closing connection '%s' failed: %v", conn.Name(), err)
		}
	}
	e.mustTransition(execution, StateClosed)

	if !execution.complete(result) {
		logger.Errorf("Pipeline '%s' (run %s) finished twice; keeping the first result.", e.name, execution.RunID)
		r, _ := execution.Result()
		return r
	}

	if !result.Succeeded() {
		e.tracer.RecordError(ctx, "executor", result.Err())
	}
	e.recorder.RecordRunEnd(ctx, e.name, result.Outcome(), execution.Duration())
	logger.Infof("Pipeline '%s' (run %s) finished with %s in %s.", e.name, execution.RunID, result.Outcome(), execution.Duration())

	for _, l := range e.pipelineListeners {
		l.AfterPipeline(ctx, execution)
	}
	return result
}

func (e *Executor) mustTransition(execution *Execution, next State) {
	if err := execution.transition(next); err != nil {
		logger.Errorf("Pipeline '%s' (run %s): %v", e.name, execution.RunID, err)
	}
}
