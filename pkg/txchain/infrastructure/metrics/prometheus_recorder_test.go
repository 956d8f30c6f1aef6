package metrics_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	config "github.com/jmens/txchain/pkg/txchain/core/config"
	coremetrics "github.com/jmens/txchain/pkg/txchain/core/metrics"
	"github.com/jmens/txchain/pkg/txchain/infrastructure/metrics"
	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

func TestPrometheusRecorder_CountsRunsStepsAndRollbacks(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	ctx := context.Background()

	r.RecordStep(ctx, "prefs", "create-schema", "COMPLETED", time.Millisecond)
	r.RecordStep(ctx, "prefs", "faulty", "FAILED", time.Millisecond)
	r.RecordRollback(ctx, "prefs", "COMPLETED")
	r.RecordRunEnd(ctx, "prefs", "Error", 5*time.Millisecond)
	r.RecordRunEnd(ctx, "prefs", "Success", 5*time.Millisecond)
	r.RecordRunEnd(ctx, "prefs", "Success", 5*time.Millisecond)

	families, err := r.GetRegistry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["txchain_runs_total"])
	assert.True(t, names["txchain_rollbacks_total"])
	assert.True(t, names["txchain_step_duration_seconds"])

	count := func(name string) int {
		n, err := testutil.GatherAndCount(r.GetRegistry(), name)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 2, count("txchain_steps_total"))
	assert.Equal(t, 1, count("txchain_rollbacks_total"))
	assert.Equal(t, 2, count("txchain_runs_total"), "one series per outcome")
}

func TestSummary_ListsPipelineSeriesOnly(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	ctx := context.Background()
	r.RecordRollback(ctx, "prefs", "COMPLETED")
	r.RecordRunEnd(ctx, "prefs", "Error", 2*time.Second)

	lines, err := metrics.Summary(r.GetRegistry(), metrics.MetricPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`txchain_rollbacks_total{pipeline="prefs",status="COMPLETED"} 1`,
		`txchain_run_duration_seconds_count{outcome="Error",pipeline="prefs"} 1`,
		`txchain_run_duration_seconds_sum{outcome="Error",pipeline="prefs"} 2`,
		`txchain_runs_total{outcome="Error",pipeline="prefs"} 1`,
	}, lines)
}

func TestModule_LogsSummaryAfterDrainingOnStop(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	var recorder coremetrics.MetricRecorder
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		metrics.Module,
		fx.Populate(&recorder),
	)
	app.RequireStart()
	_, async := recorder.(*metrics.AsyncMetricRecorder)
	assert.True(t, async)

	recorder.RecordRunEnd(context.Background(), "prefs", "Success", time.Millisecond)
	app.RequireStop()

	assert.Contains(t, buf.String(), `txchain_runs_total{outcome="Success",pipeline="prefs"} 1`)
}
