package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmens/txchain/pkg/txchain/support/util/exception"
)

func TestNewStepFailure(t *testing.T) {
	cause := errors.New("datatype mismatch")
	err := exception.NewStepFailure("insert-user", cause)

	assert.Equal(t, exception.KindStep, err.Kind)
	assert.Equal(t, "insert-user", err.Step)
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, exception.ErrStepFailure))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, exception.ErrRollbackFailure))
	assert.Contains(t, err.Error(), "[executor] StepFailure: step 'insert-user' failed: datatype mismatch")
	assert.NotEmpty(t, err.StackTrace)
}

func TestSentinelsMatchByKind(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		kind     exception.Kind
	}{
		{exception.NewConnectionFailure("provider", "open failed", nil), exception.ErrConnectionFailure, exception.KindConnection},
		{exception.NewRollbackFailure("compensator", errors.New("conn reset")), exception.ErrRollbackFailure, exception.KindRollback},
		{exception.NewCommitFailure("executor", errors.New("busy")), exception.ErrCommitFailure, exception.KindCommit},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.True(t, errors.Is(tc.err, tc.sentinel))
			kind, ok := exception.KindOf(tc.err)
			assert.True(t, ok)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", exception.NewStepFailure("dump-tables", errors.New("no such table")))

	kind, ok := exception.KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, exception.KindStep, kind)
	assert.Equal(t, "dump-tables", exception.FailedStep(wrapped))

	_, ok = exception.KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Empty(t, exception.FailedStep(errors.New("plain")))
}
