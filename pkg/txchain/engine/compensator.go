package engine

import (
	"context"

	"github.com/jmens/txchain/pkg/txchain/core/metrics"
	"github.com/jmens/txchain/pkg/txchain/core/tx"
	"github.com/jmens/txchain/pkg/txchain/support/util/exception"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// InspectFunc looks at the connection after a successful rollback, for diagnostics only.
type InspectFunc func(ctx context.Context, conn tx.Connection) error

// Compensator rolls back the open transaction of a failed run.
type Compensator struct {
	pipeline string
	inspect  InspectFunc
	recorder metrics.MetricRecorder
}

// CompensatorOption configures a Compensator.
type CompensatorOption func(*Compensator)

// WithInspection runs fn after every successful rollback. Its error is logged only.
func WithInspection(fn InspectFunc) CompensatorOption {
	return func(c *Compensator) { c.inspect = fn }
}

// WithRollbackRecorder reports rollback attempts to recorder.
func WithRollbackRecorder(recorder metrics.MetricRecorder) CompensatorOption {
	return func(c *Compensator) { c.recorder = recorder }
}

// NewCompensator creates a Compensator for the named pipeline.
func NewCompensator(pipeline string, opts ...CompensatorOption) *Compensator {
	c := &Compensator{
		pipeline: pipeline,
		recorder: metrics.NewNoOpMetricRecorder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compensate makes one rollback attempt on conn. The returned error is a RollbackFailure;
// it is secondary and must not replace the failure that caused the rollback.
// Compensate does not close conn.
//
// Parameters:
//
//	ctx: Context for the rollback and the optional inspection.
//	conn: The connection whose transaction is undone.
//
// Returns:
//
//	nil if the rollback succeeded, otherwise a rollback PipelineError (KindRollback) wrapping the driver error.
func (c *Compensator) Compensate(ctx context.Context, conn tx.Connection) error {
	logger.Warnf("Rolling back transaction on connection '%s'.", conn.Name())

	if err := conn.Rollback(ctx); err != nil {
		rbErr := exception.NewRollbackFailure("compensator", err)
		logger.Errorf("Rollback on connection '%s' failed: %v", conn.Name(), err)
		c.recorder.RecordRollback(ctx, c.pipeline, string(StepFailed))
		return rbErr
	}
	c.recorder.RecordRollback(ctx, c.pipeline, string(StepCompleted))
	logger.Infof("Transaction on connection '%s' rolled back.", conn.Name())

	if c.inspect == nil {
		return nil
	}
	if err := c.inspect(ctx, conn); err != nil {
		if conn.IsTableNotExistError(err) {
			logger.Infof("Post-rollback inspection: schema was rolled back with the transaction (%v).", err)
		} else {
			logger.Warnf("Post-rollback inspection failed: %v", err)
		}
	}
	return nil
}
