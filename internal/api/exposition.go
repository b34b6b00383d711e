package api

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// exposition serves GET /metrics in the Prometheus text exposition format,
// rendering the aggregate analysis counters.
func (h *Handler) exposition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := h.sys.Statistics()

	families := []*dto.MetricFamily{
		counter("driftwatch_analyses_total",
			"Total transition analyses currently retained in history.",
			float64(stats.TotalAnalyses)),
		gauge("driftwatch_average_analysis_seconds",
			"Rolling average analysis time computed from history.",
			stats.AverageAnalysisTime.Seconds()),
		gauge("driftwatch_active_metrics",
			"Number of currently enabled metrics.",
			float64(stats.ActiveMetrics)),
		healthGauge(stats.HealthyCount, stats.DegradedCount, stats.CriticalCount),
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}

func counter(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: proto.Float64(value)}},
		},
	}
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(value)}},
		},
	}
}

// healthGauge renders one gauge per health level under a shared family,
// labelled by level.
func healthGauge(healthy, degraded, critical int) *dto.MetricFamily {
	levels := []struct {
		label string
		count int
	}{
		{"healthy", healthy},
		{"degraded", degraded},
		{"critical", critical},
	}

	mf := &dto.MetricFamily{
		Name: proto.String("driftwatch_results_by_health"),
		Help: proto.String("History entries grouped by overall health verdict."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, lv := range levels {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{
				{Name: proto.String("health"), Value: proto.String(lv.label)},
			},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(lv.count))},
		})
	}
	return mf
}
