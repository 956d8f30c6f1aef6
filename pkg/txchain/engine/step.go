package engine

import (
	"context"
	"fmt"

	"github.com/jmens/txchain/pkg/txchain/core/tx"
)

// Value is the result a step hands to the next one.
type Value interface{}

// Unit is the value of steps that produce no payload.
type Unit struct{}

// StepFunc performs one unit of work against conn. prev is the previous step's value
// (nil for the first step).
type StepFunc func(ctx context.Context, conn tx.Connection, prev Value) (Value, error)

// SkipFunc is called instead of the StepFunc when a disabled conditional step is reached.
type SkipFunc func(ctx context.Context, prev Value)

// Step is a named StepFunc.
type Step struct {
	Name string
	Run  StepFunc

	skip   bool
	onSkip SkipFunc
}

// NewStep creates a step that always runs.
func NewStep(name string, fn StepFunc) Step {
	return Step{Name: name, Run: fn}
}

// Conditional creates a step that only runs when enabled. A disabled step passes the
// previous value through unchanged and never touches the connection.
func Conditional(name string, enabled bool, fn StepFunc) Step {
	return Step{Name: name, Run: fn, skip: !enabled}
}

// WhenSkipped returns a copy of the step that calls fn when it is skipped. fn must not
// touch the connection; it has none.
func (s Step) WhenSkipped(fn SkipFunc) Step {
	s.onSkip = fn
	return s
}

// Skipped reports whether the step is a disabled conditional step.
func (s Step) Skipped() bool {
	return s.skip
}

// Execute runs the step, or passes prev through when the step is skipped.
func (s Step) Execute(ctx context.Context, conn tx.Connection, prev Value) (Value, error) {
	if s.skip {
		if s.onSkip != nil {
			s.onSkip(ctx, prev)
		}
		return prev, nil
	}
	if s.Run == nil {
		return nil, fmt.Errorf("step '%s' has no function", s.Name)
	}
	return s.Run(ctx, conn, prev)
}

// Expect asserts the previous value's type for a step.
func Expect[T any](v Value) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("expected previous value of type %T, got %T", zero, v)
	}
	return t, nil
}
