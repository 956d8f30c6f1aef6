package app_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/jmens/txchain/example/preferences/internal/app"
	"github.com/jmens/txchain/example/preferences/internal/domain/model"
	gormadapter "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm"
	_ "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm/sqlite"
	"github.com/jmens/txchain/pkg/txchain/component/diagnostics"
	config "github.com/jmens/txchain/pkg/txchain/core/config"
	"github.com/jmens/txchain/pkg/txchain/engine"
	metrics "github.com/jmens/txchain/pkg/txchain/infrastructure/metrics"
	"github.com/jmens/txchain/pkg/txchain/listener"
	"github.com/jmens/txchain/pkg/txchain/support/util/exception"
)

type recordingSink struct {
	progress []string
	rows     []model.UserPreference
}

func (s *recordingSink) Progress(_ context.Context, format string, args ...interface{}) {
	s.progress = append(s.progress, fmt.Sprintf(format, args...))
}

func (s *recordingSink) Rows(_ context.Context, _ string, rows interface{}) error {
	s.rows = rows.([]model.UserPreference)
	return nil
}

func newExecutor(t *testing.T, cfg *config.Config, sink diagnostics.Sink) (*engine.Executor, *listener.CompletionSignaler) {
	t.Helper()
	provider, err := gormadapter.NewProvider(cfg)
	require.NoError(t, err)
	signaler := listener.NewCompletionSignalerFromConfig(cfg)

	executor, err := app.NewExecutor(app.ExecutorParams{
		Config:            cfg,
		Provider:          provider,
		Sink:              sink,
		PipelineListeners: []engine.PipelineListener{signaler},
	})
	require.NoError(t, err)
	return executor, signaler
}

func TestPipeline_CommitsAndDumpsPreferences(t *testing.T) {
	sink := &recordingSink{}
	executor, signaler := newExecutor(t, config.NewConfig(), sink)

	result := executor.Run(context.Background())
	require.NoError(t, result.Err())
	assert.Equal(t, engine.Unit{}, result.Value())

	assert.Equal(t, []string{
		"Setup database schema",
		"Inserting user Horst",
		"Inserting preferences List Items for user 1",
		"Inserting preferences Update Items for user 1",
		"Inserting faulty preferences 'foo' for user 1",
		"Inserting preferences Delete Items for user 1",
		"Dumping tables",
	}, sink.progress)

	require.Len(t, sink.rows, 3)
	var prefs []string
	for _, row := range sink.rows {
		assert.Equal(t, int64(1), row.ID)
		assert.Equal(t, "Horst", row.Username)
		prefs = append(prefs, row.Pref)
	}
	assert.Equal(t, []string{"List Items", "Update Items", "Delete Items"}, prefs)

	msg := <-signaler.Done()
	assert.Equal(t, "mainverticle", msg.Address)
	assert.Equal(t, "Success", msg.Body)
}

func TestPipeline_FaultyInsertRollsBack(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Txchain.Pipeline.ForceDBError = true
	sink := &recordingSink{}
	executor, signaler := newExecutor(t, cfg, sink)

	execution := engine.NewExecution(executor.Name())
	result := executor.RunExecution(context.Background(), execution)

	require.Error(t, result.Err())
	assert.True(t, errors.Is(result.Err(), exception.ErrStepFailure))
	assert.Equal(t, "insert-faulty-preference", exception.FailedStep(result.Err()))
	var sqliteErr sqlite3.Error
	require.True(t, errors.As(result.Err(), &sqliteErr))
	assert.Equal(t, sqlite3.ErrMismatch, sqliteErr.Code)

	assert.True(t, execution.RollbackAttempted)
	assert.NoError(t, execution.RollbackErr)
	assert.Equal(t, engine.StateClosed, execution.State)
	require.Len(t, execution.Steps, 5)
	assert.Equal(t, engine.StepFailed, execution.Steps[4].Status)

	// The dump after the rollback finds no tables, so no rows reach the sink.
	assert.Equal(t, []string{
		"Setup database schema",
		"Inserting user Horst",
		"Inserting preferences List Items for user 1",
		"Inserting preferences Update Items for user 1",
		"Inserting faulty preferences 'foo' for user 1",
		"Dumping tables",
	}, sink.progress)
	assert.Empty(t, sink.rows)

	msg := <-signaler.Done()
	assert.Equal(t, "Error", msg.Body)
}

func TestPipeline_NoDumpAfterRollbackWhenDisabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Txchain.Pipeline.ForceDBError = true
	cfg.Txchain.Pipeline.DumpAfterRollback = false
	sink := &recordingSink{}
	executor, _ := newExecutor(t, cfg, sink)

	result := executor.Run(context.Background())
	require.Error(t, result.Err())
	assert.NotContains(t, sink.progress, "Dumping tables")
}

func TestPipeline_RunsAreIndependent(t *testing.T) {
	sink := &recordingSink{}
	executor, _ := newExecutor(t, config.NewConfig(), sink)

	require.NoError(t, executor.Run(context.Background()).Err())
	sink.rows = nil
	require.NoError(t, executor.Run(context.Background()).Err())
	assert.Len(t, sink.rows, 3)
}

func TestNewSink_AddsParquetExport(t *testing.T) {
	cfg := config.NewConfig()
	assert.Len(t, app.NewSink(cfg, diagnostics.NewConsoleSink()), 1)

	cfg.Txchain.Diagnostics.ParquetPath = filepath.Join(t.TempDir(), "out", "prefs.parquet")
	sink := app.NewSink(cfg, diagnostics.NewConsoleSink())
	assert.Len(t, sink, 2)

	rows := []model.UserPreference{{ID: 1, Username: "Horst", Pref: "List Items"}}
	require.NoError(t, sink.Rows(context.Background(), "user_preferences", rows))
	info, err := os.Stat(cfg.Txchain.Diagnostics.ParquetPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestModule_RunsPipelineFromGraph(t *testing.T) {
	var (
		executor *engine.Executor
		signaler *listener.CompletionSignaler
	)
	fxApp := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		gormadapter.Module,
		listener.Module,
		metrics.Module,
		diagnostics.Module,
		app.Module,
		fx.Populate(&executor, &signaler),
	)
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	require.NoError(t, executor.Run(context.Background()).Err())
	assert.Equal(t, "Success", (<-signaler.Done()).Body)
}
