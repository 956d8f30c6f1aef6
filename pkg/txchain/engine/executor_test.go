package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/engine"
	mocktx "github.com/jmens/txchain/pkg/txchain/test"
	"github.com/jmens/txchain/pkg/txchain/support/util/exception"
)

// recordingListener counts pipeline and step notifications.
type recordingListener struct {
	before     int
	after      int
	executions []*engine.Execution
	started    []string
	finished   []*engine.StepExecution
}

func (l *recordingListener) BeforePipeline(_ context.Context, _ *engine.Execution) { l.before++ }
func (l *recordingListener) AfterPipeline(_ context.Context, e *engine.Execution) {
	l.after++
	l.executions = append(l.executions, e)
}
func (l *recordingListener) BeforeStep(_ context.Context, _ *engine.Execution, s *engine.StepExecution) {
	l.started = append(l.started, s.Name)
}
func (l *recordingListener) AfterStep(_ context.Context, _ *engine.Execution, s *engine.StepExecution) {
	l.finished = append(l.finished, s)
}

// counterStep returns a step that records its input and returns out.
func counterStep(name string, calls *[]string, inputs *[]engine.Value, out engine.Value) engine.Step {
	return engine.NewStep(name, func(_ context.Context, _ tx.Connection, prev engine.Value) (engine.Value, error) {
		*calls = append(*calls, name)
		*inputs = append(*inputs, prev)
		return out, nil
	})
}

func failingStep(name string, calls *[]string, err error) engine.Step {
	return engine.NewStep(name, func(context.Context, tx.Connection, engine.Value) (engine.Value, error) {
		*calls = append(*calls, name)
		return nil, err
	})
}

func setup(t *testing.T) (*mocktx.MockProvider, *mocktx.MockConnection, *recordingListener) {
	t.Helper()
	conn := mocktx.NewMockConnection("test")
	provider := &mocktx.MockProvider{}
	provider.On("Acquire", mock.Anything).Return(conn, nil).Once()
	return provider, conn, &recordingListener{}
}

func TestExecutor_AllStepsSucceed(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Commit", mock.Anything).Return(nil).Once()
	conn.On("Close").Return(nil).Once()

	var calls []string
	var inputs []engine.Value
	steps := []engine.Step{
		counterStep("one", &calls, &inputs, engine.Unit{}),
		counterStep("two", &calls, &inputs, int64(7)),
		counterStep("three", &calls, &inputs, int64(7)),
	}

	result := engine.NewExecutor("test", provider, steps,
		engine.WithPipelineListeners(listener),
		engine.WithStepListeners(listener),
	).Run(context.Background())

	require.True(t, result.Succeeded())
	assert.Equal(t, engine.OutcomeSuccess, result.Outcome())
	assert.Equal(t, int64(7), result.Value())
	assert.Equal(t, []string{"one", "two", "three"}, calls)
	assert.Equal(t, []engine.Value{nil, engine.Unit{}, int64(7)}, inputs)

	assert.Equal(t, 1, listener.before)
	assert.Equal(t, 1, listener.after)
	assert.Equal(t, []string{"one", "two", "three"}, listener.started)
	execution := listener.executions[0]
	assert.Equal(t, engine.StateClosed, execution.State)
	assert.False(t, execution.RollbackAttempted)
	assert.NotEmpty(t, execution.RunID)
	assert.Len(t, execution.Steps, 3)

	conn.AssertNotCalled(t, "Rollback", mock.Anything)
	conn.AssertExpectations(t)
	provider.AssertExpectations(t)
	assert.Equal(t, tx.StateClosed, conn.State())
}

func TestExecutor_StepFailureStopsChainAndRollsBackOnce(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Rollback", mock.Anything).Return(nil).Once()
	conn.On("Close").Return(nil).Once()

	cause := errors.New("datatype mismatch")
	var calls []string
	var inputs []engine.Value
	steps := []engine.Step{
		counterStep("one", &calls, &inputs, int64(1)),
		failingStep("two", &calls, cause),
		counterStep("three", &calls, &inputs, int64(3)),
	}

	result := engine.NewExecutor("test", provider, steps, engine.WithPipelineListeners(listener)).Run(context.Background())

	require.False(t, result.Succeeded())
	assert.Equal(t, engine.OutcomeError, result.Outcome())
	assert.Equal(t, []string{"one", "two"}, calls)
	assert.True(t, errors.Is(result.Err(), exception.ErrStepFailure))
	assert.True(t, errors.Is(result.Err(), cause))
	assert.Equal(t, "two", exception.FailedStep(result.Err()))

	assert.Equal(t, 1, listener.after)
	execution := listener.executions[0]
	assert.True(t, execution.RollbackAttempted)
	assert.NoError(t, execution.RollbackErr)
	assert.Equal(t, 1, execution.StepIndex)
	assert.Equal(t, engine.StepFailed, execution.Steps[1].Status)

	conn.AssertNumberOfCalls(t, "Rollback", 1)
	conn.AssertNotCalled(t, "Commit", mock.Anything)
	conn.AssertExpectations(t)
}

func TestExecutor_RollbackFailureKeepsStepFailureAsCause(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Rollback", mock.Anything).Return(errors.New("connection reset")).Once()
	conn.On("Close").Return(nil).Once()

	cause := errors.New("constraint violated")
	var calls []string
	steps := []engine.Step{failingStep("insert", &calls, cause)}

	result := engine.NewExecutor("test", provider, steps, engine.WithPipelineListeners(listener)).Run(context.Background())

	require.False(t, result.Succeeded())
	assert.True(t, errors.Is(result.Err(), exception.ErrStepFailure))
	assert.False(t, errors.Is(result.Err(), exception.ErrRollbackFailure))

	execution := listener.executions[0]
	assert.True(t, errors.Is(execution.RollbackErr, exception.ErrRollbackFailure))
	assert.Equal(t, 1, listener.after)
	conn.AssertExpectations(t)
}

func TestExecutor_ConnectionFailureSkipsRollback(t *testing.T) {
	provider := &mocktx.MockProvider{}
	provider.On("Acquire", mock.Anything).Return(nil, errors.New("no route to host")).Once()
	listener := &recordingListener{}

	var calls []string
	var inputs []engine.Value
	steps := []engine.Step{counterStep("one", &calls, &inputs, nil)}

	result := engine.NewExecutor("test", provider, steps, engine.WithPipelineListeners(listener)).Run(context.Background())

	require.False(t, result.Succeeded())
	assert.True(t, errors.Is(result.Err(), exception.ErrConnectionFailure))
	assert.Empty(t, calls)
	assert.Equal(t, 1, listener.after)
	assert.False(t, listener.executions[0].RollbackAttempted)
	assert.Equal(t, engine.StateClosed, listener.executions[0].State)
}

func TestExecutor_CommitFailureReportsErrorWithoutRollback(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Commit", mock.Anything).Return(errors.New("database is locked")).Once()
	conn.On("Close").Return(nil).Once()

	var calls []string
	var inputs []engine.Value
	steps := []engine.Step{counterStep("one", &calls, &inputs, engine.Unit{})}

	result := engine.NewExecutor("test", provider, steps, engine.WithPipelineListeners(listener)).Run(context.Background())

	require.False(t, result.Succeeded())
	assert.True(t, errors.Is(result.Err(), exception.ErrCommitFailure))
	assert.False(t, listener.executions[0].RollbackAttempted)
	conn.AssertNotCalled(t, "Rollback", mock.Anything)
	conn.AssertExpectations(t)
	assert.Equal(t, 1, listener.after)
}

func TestExecutor_CloseFailureDoesNotChangeOutcome(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Commit", mock.Anything).Return(nil).Once()
	conn.On("Close").Return(errors.New("close failed")).Once()

	result := engine.NewExecutor("test", provider, nil, engine.WithPipelineListeners(listener)).Run(context.Background())

	assert.True(t, result.Succeeded())
	assert.Equal(t, tx.StateClosedWithError, conn.State())
	assert.Equal(t, 1, listener.after)
}

func TestExecutor_DisabledConditionalStepPassesValueThrough(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Commit", mock.Anything).Return(nil).Once()
	conn.On("Close").Return(nil).Once()

	var calls []string
	var inputs []engine.Value
	steps := []engine.Step{
		counterStep("insert-user", &calls, &inputs, int64(42)),
		engine.Conditional("faulty", false, func(_ context.Context, c tx.Connection, _ engine.Value) (engine.Value, error) {
			_, err := c.Exec(context.Background(), "INSERT broken")
			return nil, err
		}),
		counterStep("after", &calls, &inputs, "done"),
	}

	result := engine.NewExecutor("test", provider, steps, engine.WithStepListeners(listener)).Run(context.Background())

	require.True(t, result.Succeeded())
	assert.Equal(t, []engine.Value{nil, int64(42)}, inputs)
	assert.Equal(t, engine.StepSkipped, listener.finished[1].Status)
	assert.Equal(t, int64(42), listener.finished[1].Output)
	conn.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_PanickingStepIsTreatedAsFailure(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Rollback", mock.Anything).Return(nil).Once()
	conn.On("Close").Return(nil).Once()

	steps := []engine.Step{
		engine.NewStep("boom", func(context.Context, tx.Connection, engine.Value) (engine.Value, error) {
			panic("unexpected nil")
		}),
	}

	result := engine.NewExecutor("test", provider, steps, engine.WithPipelineListeners(listener)).Run(context.Background())

	require.False(t, result.Succeeded())
	assert.ErrorContains(t, result.Err(), "panicked: unexpected nil")
	assert.Equal(t, 1, listener.after)
	conn.AssertExpectations(t)
}

func TestExecutor_CancelledContextFailsBeforeNextStep(t *testing.T) {
	provider, conn, listener := setup(t)
	conn.On("Rollback", mock.Anything).Return(nil).Once()
	conn.On("Close").Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	steps := []engine.Step{
		engine.NewStep("cancel", func(context.Context, tx.Connection, engine.Value) (engine.Value, error) {
			calls = append(calls, "cancel")
			cancel()
			return engine.Unit{}, nil
		}),
		engine.NewStep("never", func(context.Context, tx.Connection, engine.Value) (engine.Value, error) {
			calls = append(calls, "never")
			return engine.Unit{}, nil
		}),
	}

	result := engine.NewExecutor("test", provider, steps, engine.WithPipelineListeners(listener)).Run(ctx)

	require.False(t, result.Succeeded())
	assert.True(t, errors.Is(result.Err(), context.Canceled))
	assert.Equal(t, "never", exception.FailedStep(result.Err()))
	assert.Equal(t, []string{"cancel"}, calls)
	assert.Equal(t, 1, listener.after)
}

func TestExecutor_EachRunAcquiresItsOwnConnection(t *testing.T) {
	first := mocktx.NewMockConnection("first")
	second := mocktx.NewMockConnection("second")
	for _, c := range []*mocktx.MockConnection{first, second} {
		c.On("Commit", mock.Anything).Return(nil).Once()
		c.On("Close").Return(nil).Once()
	}
	provider := &mocktx.MockProvider{}
	provider.On("Acquire", mock.Anything).Return(first, nil).Once()
	provider.On("Acquire", mock.Anything).Return(second, nil).Once()
	listener := &recordingListener{}

	executor := engine.NewExecutor("test", provider, nil, engine.WithPipelineListeners(listener))
	assert.True(t, executor.Run(context.Background()).Succeeded())
	assert.True(t, executor.Run(context.Background()).Succeeded())

	assert.Equal(t, 2, listener.after)
	assert.NotEqual(t, listener.executions[0].RunID, listener.executions[1].RunID)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}
