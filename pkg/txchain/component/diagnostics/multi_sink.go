package diagnostics

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// MultiSink fans every call out to all of its sinks.
type MultiSink []Sink

// NewMultiSink creates a MultiSink, dropping nil sinks.
func NewMultiSink(sinks ...Sink) MultiSink {
	m := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

// Progress forwards to every sink.
func (m MultiSink) Progress(ctx context.Context, format string, args ...interface{}) {
	for _, s := range m {
		s.Progress(ctx, format, args...)
	}
}

// Rows forwards to every sink and returns the combined errors.
func (m MultiSink) Rows(ctx context.Context, table string, rows interface{}) error {
	var result *multierror.Error
	for _, s := range m {
		if err := s.Rows(ctx, table, rows); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

var _ Sink = MultiSink(nil)
