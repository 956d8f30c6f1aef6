// Package engine runs an ordered chain of steps against one transactional connection.
//
// An Executor acquires a connection from a tx.ConnectionProvider, runs its steps in order
// (each step receives the value produced by the previous one), and ends the run in exactly
// one of two ways:
//
//   - every step succeeded: the transaction is committed, the connection closed, and the
//     run finishes with Success(lastValue);
//   - a step failed: the Compensator rolls the open transaction back (one attempt), the
//     connection is closed, and the run finishes with Failure(stepFailure).
//
// Both paths end in a single finish function, which is the only caller of
// PipelineListener.AfterPipeline. A listener therefore observes exactly one terminal
// outcome per run.
package engine
