package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepStatus is the outcome of one step.
type StepStatus string

const (
	StepStarted   StepStatus = "STARTED"
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
	StepSkipped   StepStatus = "SKIPPED"
)

// StepExecution records one step of a run.
type StepExecution struct {
	Name      string
	Index     int
	Status    StepStatus
	Input     Value
	Output    Value
	Err       error
	StartTime time.Time
	EndTime   *time.Time
}

// Duration returns the step's run time, or zero while it is still running.
func (s *StepExecution) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s *StepExecution) finish(status StepStatus, out Value, err error) {
	now := time.Now()
	s.Status = status
	s.Output = out
	s.Err = err
	s.EndTime = &now
}

// Execution is the record of one pipeline run. It is owned by the executor goroutine;
// listeners read it but must not modify it.
type Execution struct {
	RunID        string
	PipelineName string
	State        State
	// StepIndex is the index of the current or last started step, -1 before the first.
	StepIndex int
	Steps     []*StepExecution
	StartTime time.Time
	EndTime   *time.Time

	// RollbackAttempted is true once the compensator has been invoked.
	RollbackAttempted bool
	// RollbackErr is the secondary rollback failure, if any. It never replaces the cause.
	RollbackErr error

	result    Result
	resultSet bool
	once      sync.Once
}

// NewExecution creates the record of a new run in state Connecting.
func NewExecution(pipelineName string) *Execution {
	return &Execution{
		RunID:        uuid.NewString(),
		PipelineName: pipelineName,
		State:        StateConnecting,
		StepIndex:    -1,
		StartTime:    time.Now(),
	}
}

// Result returns the terminal result; ok is false while the run is in progress.
func (e *Execution) Result() (Result, bool) {
	return e.result, e.resultSet
}

// Duration returns the run time, or zero while the run is in progress.
func (e *Execution) Duration() time.Duration {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

func (e *Execution) transition(next State) error {
	if !e.State.CanTransition(next) {
		return fmt.Errorf("illegal pipeline state transition %s -> %s", e.State, next)
	}
	e.State = next
	return nil
}

// complete assigns the terminal result. Only the first call has an effect; it reports
// whether this call assigned it.
func (e *Execution) complete(r Result) bool {
	assigned := false
	e.once.Do(func() {
		now := time.Now()
		e.result = r
		e.resultSet = true
		e.EndTime = &now
		assigned = true
	})
	return assigned
}

// PipelineListener observes the start and the terminal outcome of a run.
// AfterPipeline is called exactly once per run.
type PipelineListener interface {
	BeforePipeline(ctx context.Context, execution *Execution)
	AfterPipeline(ctx context.Context, execution *Execution)
}

// StepListener observes individual steps.
type StepListener interface {
	BeforeStep(ctx context.Context, execution *Execution, step *StepExecution)
	AfterStep(ctx context.Context, execution *Execution, step *StepExecution)
}
