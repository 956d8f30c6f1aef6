// Package logging provides listeners that log the progress of a pipeline run.
package logging

import (
	"context"

	"github.com/jmens/txchain/pkg/txchain/engine"
	logger "github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// --- Pipeline Listener ---

type LoggingPipelineListener struct{}

func NewLoggingPipelineListener() *LoggingPipelineListener {
	return &LoggingPipelineListener{}
}

func (l *LoggingPipelineListener) BeforePipeline(ctx context.Context, execution *engine.Execution) {
	logger.Infof("PipelineListener: BeforePipeline - Name: %s, RunID: %s", execution.PipelineName, execution.RunID)
}

func (l *LoggingPipelineListener) AfterPipeline(ctx context.Context, execution *engine.Execution) {
	outcome := engine.OutcomeError
	var cause error
	if result, ok := execution.Result(); ok {
		outcome = result.Outcome()
		cause = result.Err()
	}
	if cause == nil {
		logger.Infof("PipelineListener: AfterPipeline - Name: %s, Outcome: %s, Duration: %s",
			execution.PipelineName, outcome, execution.Duration())
		return
	}
	logger.Warnf("PipelineListener: AfterPipeline - Name: %s, Outcome: %s, Duration: %s, RolledBack: %t, Cause: %v",
		execution.PipelineName, outcome, execution.Duration(), execution.RollbackAttempted && execution.RollbackErr == nil, cause)
	if execution.RollbackErr != nil {
		logger.Errorf("PipelineListener: AfterPipeline - Name: %s, RollbackError: %v", execution.PipelineName, execution.RollbackErr)
	}
}

var _ engine.PipelineListener = (*LoggingPipelineListener)(nil)

// --- Step Listener ---

type LoggingStepListener struct{}

func NewLoggingStepListener() *LoggingStepListener {
	return &LoggingStepListener{}
}

func (l *LoggingStepListener) BeforeStep(ctx context.Context, execution *engine.Execution, step *engine.StepExecution) {
	logger.Debugf("StepListener: BeforeStep - StepName: %s, Index: %d", step.Name, step.Index)
}

func (l *LoggingStepListener) AfterStep(ctx context.Context, execution *engine.Execution, step *engine.StepExecution) {
	if step.Err != nil {
		logger.Errorf("StepListener: AfterStep - StepName: %s, Status: %s, Error: %v", step.Name, step.Status, step.Err)
		return
	}
	logger.Debugf("StepListener: AfterStep - StepName: %s, Status: %s, Duration: %s", step.Name, step.Status, step.Duration())
}

var _ engine.StepListener = (*LoggingStepListener)(nil)
