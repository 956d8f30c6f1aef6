package engine

import "errors"

const (
	// OutcomeSuccess is the terminal message of a successful run.
	OutcomeSuccess = "Success"
	// OutcomeError is the terminal message of a failed run.
	OutcomeError = "Error"
)

var errUnknownFailure = errors.New("pipeline failed without a cause")

// Result is the terminal outcome of a run: either Success(value) or Failure(cause).
type Result struct {
	value Value
	err   error
}

// Success returns a successful Result carrying the final step value.
func Success(v Value) Result {
	return Result{value: v}
}

// Failure returns a failed Result. A nil cause is replaced with a generic error so that
// a Failure never reads as a success.
func Failure(cause error) Result {
	if cause == nil {
		cause = errUnknownFailure
	}
	return Result{err: cause}
}

// Succeeded reports whether the run succeeded.
func (r Result) Succeeded() bool { return r.err == nil }

// Value returns the final step value of a successful run.
func (r Result) Value() Value { return r.value }

// Err returns the cause of a failed run, or nil.
func (r Result) Err() error { return r.err }

// Outcome returns OutcomeSuccess or OutcomeError.
func (r Result) Outcome() string {
	if r.Succeeded() {
		return OutcomeSuccess
	}
	return OutcomeError
}
