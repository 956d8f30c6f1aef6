package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// ConsoleSink writes progress and rows through the application logger, one JSON object
// per row.
type ConsoleSink struct{}

// NewConsoleSink creates a ConsoleSink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Progress logs the formatted line at INFO.
func (s *ConsoleSink) Progress(ctx context.Context, format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Rows logs the number of rows followed by each row as JSON.
func (s *ConsoleSink) Rows(ctx context.Context, table string, rows interface{}) error {
	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("console sink: rows of '%s' must be a slice, got %T", table, rows)
	}

	logger.Infof("%s: %d rows", table, v.Len())
	for i := 0; i < v.Len(); i++ {
		line, err := json.Marshal(v.Index(i).Interface())
		if err != nil {
			return fmt.Errorf("console sink: row %d of '%s': %w", i, table, err)
		}
		logger.Infof("  %s", line)
	}
	return nil
}

var _ Sink = (*ConsoleSink)(nil)
