// Package exception defines the error taxonomy of a pipeline run.
// Every failure surfaced by the engine is a *PipelineError whose Kind tells the caller
// which phase of the run failed; errors.Is matches it against the Err* sentinels.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind classifies a PipelineError.
type Kind string

const (
	// KindConnection means no usable transactional connection could be acquired.
	KindConnection Kind = "ConnectionFailure"
	// KindStep means a step failed while the transaction was open.
	KindStep Kind = "StepFailure"
	// KindRollback means the compensating rollback itself failed.
	KindRollback Kind = "RollbackFailure"
	// KindCommit means the transaction could not be committed after all steps succeeded.
	KindCommit Kind = "CommitFailure"
)

var (
	// ErrConnectionFailure is the sentinel matched by errors.Is for KindConnection errors.
	ErrConnectionFailure = errors.New(string(KindConnection))
	// ErrStepFailure is the sentinel matched by errors.Is for KindStep errors.
	ErrStepFailure = errors.New(string(KindStep))
	// ErrRollbackFailure is the sentinel matched by errors.Is for KindRollback errors.
	ErrRollbackFailure = errors.New(string(KindRollback))
	// ErrCommitFailure is the sentinel matched by errors.Is for KindCommit errors.
	ErrCommitFailure = errors.New(string(KindCommit))
)

var sentinels = map[Kind]error{
	KindConnection: ErrConnectionFailure,
	KindStep:       ErrStepFailure,
	KindRollback:   ErrRollbackFailure,
	KindCommit:     ErrCommitFailure,
}

// PipelineError is a failure raised during a pipeline run.
type PipelineError struct {
	// Kind is the failure class.
	Kind Kind
	// Module is the component that raised the error ("provider", "executor", "compensator").
	Module string
	// Step is the failing step name; empty unless Kind is KindStep.
	Step string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped cause.
	OriginalErr error
	// StackTrace is captured at construction for debugging.
	StackTrace string
}

func newPipelineError(kind Kind, module, step, message string, originalErr error) *PipelineError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &PipelineError{
		Kind:        kind,
		Module:      module,
		Step:        step,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// NewConnectionFailure wraps an error raised while acquiring or preparing a connection.
func NewConnectionFailure(module, message string, originalErr error) *PipelineError {
	return newPipelineError(KindConnection, module, "", message, originalErr)
}

// NewStepFailure wraps an error returned by the named step.
func NewStepFailure(step string, originalErr error) *PipelineError {
	return newPipelineError(KindStep, "executor", step, fmt.Sprintf("step '%s' failed", step), originalErr)
}

// NewRollbackFailure wraps an error returned by a rollback attempt.
func NewRollbackFailure(module string, originalErr error) *PipelineError {
	return newPipelineError(KindRollback, module, "", "rollback failed", originalErr)
}

// NewCommitFailure wraps an error returned by the final commit.
func NewCommitFailure(module string, originalErr error) *PipelineError {
	return newPipelineError(KindCommit, module, "", "commit failed", originalErr)
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.Kind, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.Kind, e.Message)
}

// Unwrap returns the original error.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is the sentinel for e's Kind.
func (e *PipelineError) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && target == sentinel
}

// KindOf returns the Kind of the first PipelineError in err's chain.
func KindOf(err error) (Kind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// FailedStep returns the step name carried by the first step failure in err's chain.
func FailedStep(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Kind == KindStep {
		return pe.Step
	}
	return ""
}
