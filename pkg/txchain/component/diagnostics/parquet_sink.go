package diagnostics

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// ParquetSink writes row sets of type T to a local parquet file. T must carry parquet
// struct tags. Progress lines are ignored; row sets of other types are skipped.
type ParquetSink[T any] struct {
	path string
}

// NewParquetSink creates a sink writing to path. The file is replaced on every Rows call.
func NewParquetSink[T any](path string) *ParquetSink[T] {
	return &ParquetSink[T]{path: path}
}

// Progress implements Sink and does nothing.
func (s *ParquetSink[T]) Progress(ctx context.Context, format string, args ...interface{}) {}

// Rows encodes rows with SNAPPY compression and writes them to the sink's path.
func (s *ParquetSink[T]) Rows(ctx context.Context, table string, rows interface{}) error {
	records, ok := rows.([]T)
	if !ok {
		if ptr, isPtr := rows.(*[]T); isPtr && ptr != nil {
			records, ok = *ptr, true
		}
	}
	if !ok {
		logger.Debugf("ParquetSink: skipping rows of '%s' (%T).", table, rows)
		return nil
	}

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(T), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer for '%s': %w", table, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, record := range records {
		if err := pw.Write(record); err != nil {
			return fmt.Errorf("failed to write record of '%s' to parquet: %w", table, err)
		}
	}
	if err := writeStop(pw); err != nil {
		return fmt.Errorf("failed to stop parquet writer for '%s': %w", table, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write parquet file '%s': %w", s.path, err)
	}
	logger.Infof("ParquetSink: wrote %d rows of '%s' to %s (%d bytes).", len(records), table, s.path, buf.Len())
	return nil
}

// writeStop calls WriteStop, which can panic on malformed schemas.
func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked: %v", r)
		}
	}()
	return pw.WriteStop()
}
