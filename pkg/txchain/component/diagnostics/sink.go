// Package diagnostics provides sinks for step progress text and result rows.
// A sink is observation only: its errors are logged by the caller and never fail a run.
package diagnostics

import "context"

// Sink receives progress lines and row sets.
type Sink interface {
	// Progress reports a human-readable progress line.
	Progress(ctx context.Context, format string, args ...interface{})
	// Rows reports a row set read from table. rows is a slice of records.
	Rows(ctx context.Context, table string, rows interface{}) error
}
