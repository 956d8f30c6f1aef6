// Package tx defines the transactional connection a pipeline run owns and the provider
// that hands it out. Implementations live under adapter/database.
package tx

import (
	"context"
	"database/sql"
	"strings"
)

// ConnState is the lifecycle state of a Connection.
type ConnState int

const (
	// StateOpen means the transaction is open and accepts statements.
	StateOpen ConnState = iota
	// StateCommitted means the transaction was committed; the connection is not yet closed.
	StateCommitted
	// StateRolledBack means a rollback was attempted; the connection is not yet closed.
	StateRolledBack
	// StateClosed means the connection was closed without error.
	StateClosed
	// StateClosedWithError means closing the connection reported an error.
	StateClosedWithError
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateCommitted:
		return "COMMITTED"
	case StateRolledBack:
		return "ROLLED_BACK"
	case StateClosed:
		return "CLOSED"
	case StateClosedWithError:
		return "CLOSED_WITH_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsClosed reports whether the connection has been released.
func (s ConnState) IsClosed() bool {
	return s == StateClosed || s == StateClosedWithError
}

// Executor is the statement surface a step sees.
// All data values are passed as bind arguments; statements never embed them.
type Executor interface {
	// Batch executes the statements in order and stops at the first failing one.
	Batch(ctx context.Context, statements []string) error
	// Insert stores record into table and fills its auto-generated primary key.
	Insert(ctx context.Context, table string, record interface{}) error
	// Exec executes a single statement and returns the number of affected rows.
	Exec(ctx context.Context, statement string, args ...interface{}) (int64, error)
	// Query executes statement and scans the result rows into dest (a pointer to a slice).
	// While the transaction is open the query runs inside it; after a rollback it runs on
	// the connection's own pool until the connection is closed.
	Query(ctx context.Context, dest interface{}, statement string, args ...interface{}) error
	// Quote quotes an identifier for the connection's dialect.
	Quote(identifier string) string
}

// Connection is an exclusively owned transactional connection.
// Auto-commit is disabled: every statement runs inside the transaction opened by Acquire.
type Connection interface {
	Executor

	// Commit commits the transaction.
	Commit(ctx context.Context) error
	// Rollback rolls the transaction back. Only one attempt is made per connection.
	Rollback(ctx context.Context) error
	// Close releases the connection. An open transaction is rolled back first.
	// Close is idempotent; only the first call does work.
	Close() error
	// State returns the current lifecycle state.
	State() ConnState
	// Type returns the dialect name (e.g. "sqlite").
	Type() string
	// Name returns the configured connection name.
	Name() string
	// IsTableNotExistError reports whether err means a referenced table does not exist.
	IsTableNotExistError(err error) bool
}

// ConnectionProvider acquires connections with an open transaction.
type ConnectionProvider interface {
	// Acquire opens a connection and begins a transaction on it.
	// On failure nothing is left open and the error is an exception.ConnectionFailure.
	Acquire(ctx context.Context) (Connection, error)
	// Type returns the dialect handled by this provider.
	Type() string
}

// ParseIsolationLevel converts a configured name to sql.IsolationLevel.
func ParseIsolationLevel(level string) sql.IsolationLevel {
	switch strings.ToUpper(level) {
	case "READ_UNCOMMITTED":
		return sql.LevelReadUncommitted
	case "READ_COMMITTED":
		return sql.LevelReadCommitted
	case "WRITE_COMMITTED":
		return sql.LevelWriteCommitted
	case "REPEATABLE_READ":
		return sql.LevelRepeatableRead
	case "SERIALIZABLE":
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}
