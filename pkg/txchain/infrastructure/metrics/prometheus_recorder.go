package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metrics "github.com/jmens/txchain/pkg/txchain/core/metrics"
	logger "github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDurationSeconds  *prometheus.HistogramVec
	runOutcomeCounter   *prometheus.CounterVec
	stepDurationSeconds *prometheus.HistogramVec
	stepStatusCounter   *prometheus.CounterVec
	rollbackCounter     *prometheus.CounterVec
}

// NewPrometheusRecorder creates a PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "txchain_run_duration_seconds",
			Help:    "Duration of pipeline runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline", "outcome"}),
		runOutcomeCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txchain_runs_total",
			Help: "Total number of pipeline runs by outcome.",
		}, []string{"pipeline", "outcome"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "txchain_step_duration_seconds",
			Help:    "Duration of pipeline steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline", "step", "status"}),
		stepStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txchain_steps_total",
			Help: "Total number of finished steps by status.",
		}, []string{"pipeline", "step", "status"}),
		rollbackCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txchain_rollbacks_total",
			Help: "Total number of rollback attempts by result.",
		}, []string{"pipeline", "status"}),
	}

	registry.MustRegister(r.runDurationSeconds)
	registry.MustRegister(r.runOutcomeCounter)
	registry.MustRegister(r.stepDurationSeconds)
	registry.MustRegister(r.stepStatusCounter)
	registry.MustRegister(r.rollbackCounter)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRunEnd records the end of a pipeline run.
func (r *PrometheusRecorder) RecordRunEnd(ctx context.Context, pipeline string, outcome string, duration time.Duration) {
	r.runOutcomeCounter.WithLabelValues(pipeline, outcome).Inc()
	r.runDurationSeconds.WithLabelValues(pipeline, outcome).Observe(duration.Seconds())
	logger.Debugf("Metrics: Pipeline '%s' ended with %s. Duration: %.3fs", pipeline, outcome, duration.Seconds())
}

// RecordStep records the end of a step.
func (r *PrometheusRecorder) RecordStep(ctx context.Context, pipeline string, step string, status string, duration time.Duration) {
	r.stepStatusCounter.WithLabelValues(pipeline, step, status).Inc()
	r.stepDurationSeconds.WithLabelValues(pipeline, step, status).Observe(duration.Seconds())
}

// RecordRollback records a rollback attempt.
func (r *PrometheusRecorder) RecordRollback(ctx context.Context, pipeline string, status string) {
	r.rollbackCounter.WithLabelValues(pipeline, status).Inc()
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
