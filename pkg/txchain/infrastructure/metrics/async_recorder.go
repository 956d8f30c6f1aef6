package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	metrics "github.com/jmens/txchain/pkg/txchain/core/metrics"
	logger "github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// MetricEvent represents a metric event to be recorded asynchronously.
type MetricEvent struct {
	Type     string
	Pipeline string
	Step     string
	Status   string // step status, rollback status or run outcome
	Duration time.Duration
}

// Metric event type constants
const (
	MetricEventTypeRunEnd   = "run_end"
	MetricEventTypeStep     = "step"
	MetricEventTypeRollback = "rollback"
)

// AsyncMetricRecorder pushes metric events to a channel and records them with the wrapped
// recorder in a separate goroutine, so that a slow backend never delays a transaction.
type AsyncMetricRecorder struct {
	eventQueue   chan MetricEvent
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	syncRecorder metrics.MetricRecorder
}

// NewAsyncMetricRecorder creates an asynchronous recorder around syncRec.
// If bufferSize is 0 or less a default of 100 is used.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	r := &AsyncMetricRecorder{
		eventQueue:   make(chan MetricEvent, bufferSize),
		stopCh:       make(chan struct{}),
		syncRecorder: syncRec,
	}
	r.wg.Add(1)
	go r.run()
	logger.Debugf("AsyncMetricRecorder: Worker goroutine started (buffer size: %d).", bufferSize)
	return r
}

// run reads events from the queue until stopped, then drains what is left.
func (r *AsyncMetricRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.eventQueue:
			r.processEvent(event)
		case <-r.stopCh:
			remaining := len(r.eventQueue)
			for i := 0; i < remaining; i++ {
				r.processEvent(<-r.eventQueue)
			}
			logger.Debugf("AsyncMetricRecorder: Worker goroutine stopped. Processed %d remaining events.", remaining)
			return
		}
	}
}

func (r *AsyncMetricRecorder) processEvent(event MetricEvent) {
	ctx := context.Background()
	switch event.Type {
	case MetricEventTypeRunEnd:
		r.syncRecorder.RecordRunEnd(ctx, event.Pipeline, event.Status, event.Duration)
	case MetricEventTypeStep:
		r.syncRecorder.RecordStep(ctx, event.Pipeline, event.Step, event.Status, event.Duration)
	case MetricEventTypeRollback:
		r.syncRecorder.RecordRollback(ctx, event.Pipeline, event.Status)
	default:
		logger.Warnf("AsyncMetricRecorder: Unknown metric event type: %s", event.Type)
	}
}

// enqueue drops the event when the recorder is stopped or the queue is full.
func (r *AsyncMetricRecorder) enqueue(event MetricEvent) {
	select {
	case <-r.stopCh:
		logger.Debugf("AsyncMetricRecorder: stopped, dropping %s event.", event.Type)
		return
	default:
	}
	select {
	case r.eventQueue <- event:
	default:
		logger.Warnf("AsyncMetricRecorder: queue full, dropping %s event for pipeline '%s'.", event.Type, event.Pipeline)
	}
}

// RecordRunEnd implements metrics.MetricRecorder.
func (r *AsyncMetricRecorder) RecordRunEnd(ctx context.Context, pipeline string, outcome string, duration time.Duration) {
	r.enqueue(MetricEvent{Type: MetricEventTypeRunEnd, Pipeline: pipeline, Status: outcome, Duration: duration})
}

// RecordStep implements metrics.MetricRecorder.
func (r *AsyncMetricRecorder) RecordStep(ctx context.Context, pipeline string, step string, status string, duration time.Duration) {
	r.enqueue(MetricEvent{Type: MetricEventTypeStep, Pipeline: pipeline, Step: step, Status: status, Duration: duration})
}

// RecordRollback implements metrics.MetricRecorder.
func (r *AsyncMetricRecorder) RecordRollback(ctx context.Context, pipeline string, status string) {
	r.enqueue(MetricEvent{Type: MetricEventTypeRollback, Pipeline: pipeline, Status: status})
}

// Close stops the worker after the queued events have been recorded.
func (r *AsyncMetricRecorder) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

// NewAsyncMetricRecorderWrapper decorates the provided MetricRecorder and stops the worker
// when the application stops.
func NewAsyncMetricRecorderWrapper(lc fx.Lifecycle, rec metrics.MetricRecorder) metrics.MetricRecorder {
	async := NewAsyncMetricRecorder(0, rec)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			async.Close()
			return nil
		},
	})
	return async
}

var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)
