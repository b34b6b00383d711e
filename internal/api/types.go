package api

import (
	"time"

	"github.com/driftwatch/driftwatch/internal/analyzer"
	"github.com/driftwatch/driftwatch/internal/metric"
	"github.com/driftwatch/driftwatch/internal/pipeline"
)

// ResultView is the JSON representation of one transition result.
type ResultView struct {
	FromStageID  uint32              `json:"from_stage_id"`
	ToStageID    uint32              `json:"to_stage_id"`
	Stage        string              `json:"stage"`
	Health       string              `json:"health"`
	OverallScore float64             `json:"overall_score"`
	Summary      string              `json:"summary"`
	Successful   bool                `json:"successful"`
	AnalysisMs   float64             `json:"analysis_ms"`
	Timestamp    time.Time           `json:"timestamp"`
	Metrics      []MetricView        `json:"metrics"`
	Adjustments  []metric.Suggestion `json:"adjustments,omitempty"`
}

// MetricView is the JSON representation of one metric result.
type MetricView struct {
	Name        string              `json:"name"`
	Successful  bool                `json:"successful"`
	Score       float64             `json:"score"`
	Status      string              `json:"status"`
	Detail      string              `json:"detail,omitempty"`
	Error       string              `json:"error,omitempty"`
	Suggestions []metric.Suggestion `json:"suggestions,omitempty"`
	DurationMs  float64             `json:"duration_ms"`
}

// StatisticsResponse is the JSON view of the system statistics.
type StatisticsResponse struct {
	TotalAnalyses     int     `json:"total_analyses"`
	HealthyCount      int     `json:"healthy_count"`
	DegradedCount     int     `json:"degraded_count"`
	CriticalCount     int     `json:"critical_count"`
	AverageAnalysisMs float64 `json:"average_analysis_ms"`
	ActiveMetrics     int     `json:"active_metrics"`
}

// MetricsResponse lists registered and enabled metric names.
type MetricsResponse struct {
	Available []string `json:"available"`
	Enabled   []string `json:"enabled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RecentResultViews returns the newest history entries as JSON views,
// oldest first. Shared with the WebSocket hub so both surfaces emit the
// same shape.
func RecentResultViews(sys *pipeline.System, limit int) []ResultView {
	results := sys.RecentResults(limit)
	out := make([]ResultView, 0, len(results))
	for _, r := range results {
		out = append(out, toResultView(r))
	}
	return out
}

func toResultView(r analyzer.TransitionResult) ResultView {
	v := ResultView{
		FromStageID:  r.FromStageID,
		ToStageID:    r.ToStageID,
		Stage:        r.StageName,
		Health:       r.Health.String(),
		OverallScore: r.OverallScore,
		Summary:      r.Summary,
		Successful:   r.Successful,
		AnalysisMs:   float64(r.AnalysisTime.Microseconds()) / 1000,
		Timestamp:    r.Timestamp,
		Metrics:      make([]MetricView, 0, len(r.MetricResults)),
		Adjustments:  r.Adjustments,
	}
	for _, m := range r.MetricResults {
		v.Metrics = append(v.Metrics, MetricView{
			Name:        m.MetricName,
			Successful:  m.Successful,
			Score:       m.Score,
			Status:      m.Status.String(),
			Detail:      m.Detail,
			Error:       m.Err,
			Suggestions: m.Suggestions,
			DurationMs:  float64(m.Duration.Microseconds()) / 1000,
		})
	}
	return v
}

func toStatisticsResponse(stats pipeline.SystemStatistics) StatisticsResponse {
	return StatisticsResponse{
		TotalAnalyses:     stats.TotalAnalyses,
		HealthyCount:      stats.HealthyCount,
		DegradedCount:     stats.DegradedCount,
		CriticalCount:     stats.CriticalCount,
		AverageAnalysisMs: float64(stats.AverageAnalysisTime.Microseconds()) / 1000,
		ActiveMetrics:     stats.ActiveMetrics,
	}
}
