package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/fx"

	logger "github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// MetricPrefix is the name prefix of all pipeline metrics.
const MetricPrefix = "txchain_"

// Summary renders the counters and histogram counts of g whose names start with prefix,
// one sorted line per series, e.g. `txchain_runs_total{outcome="Success",pipeline="prefs"} 1`.
// Histograms are reported by sample count and sum.
func Summary(g prometheus.Gatherer, prefix string) ([]string, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		name := family.GetName()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s%s %g", name, labels, m.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				lines = append(lines, fmt.Sprintf("%s%s %g", name, labels, m.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				lines = append(lines,
					fmt.Sprintf("%s_count%s %d", name, labels, h.GetSampleCount()),
					fmt.Sprintf("%s_sum%s %g", name, labels, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	return lines, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

// RegisterSummaryOnStop logs the pipeline metrics of r when the application stops.
// It must be invoked before the recorder is decorated, so that the asynchronous recorder
// drains its queue before the summary is taken.
func RegisterSummaryOnStop(lc fx.Lifecycle, r *PrometheusRecorder) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			lines, err := Summary(r.GetRegistry(), MetricPrefix)
			if err != nil {
				logger.Warnf("Metrics summary unavailable: %v", err)
				return nil
			}
			logger.Infof("Metrics summary (%d series):", len(lines))
			for _, line := range lines {
				logger.Infof("  %s", line)
			}
			return nil
		},
	})
}
