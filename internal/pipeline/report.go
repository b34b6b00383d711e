package pipeline

import (
	"fmt"
	"strings"
)

// reportRecentResults is how many history entries the plain-text report
// includes.
const reportRecentResults = 10

// GenerateAnalysisReport renders system statistics and the most recent
// results as formatted plain text. The format is for human eyes, not a
// wire contract.
func (s *System) GenerateAnalysisReport() string {
	stats := s.Statistics()

	var b strings.Builder
	b.WriteString("Differential Analysis Report\n")
	b.WriteString("============================\n\n")

	fmt.Fprintf(&b, "Total Analyses: %d\n", stats.TotalAnalyses)
	fmt.Fprintf(&b, "Average Analysis Time: %s\n", stats.AverageAnalysisTime)
	fmt.Fprintf(&b, "Active Metrics: %d\n", stats.ActiveMetrics)
	if stats.TotalAnalyses > 0 {
		fmt.Fprintf(&b, "Healthy: %d (%.1f%%)  Degraded: %d (%.1f%%)  Critical: %d (%.1f%%)\n",
			stats.HealthyCount, pct(stats.HealthyCount, stats.TotalAnalyses),
			stats.DegradedCount, pct(stats.DegradedCount, stats.TotalAnalyses),
			stats.CriticalCount, pct(stats.CriticalCount, stats.TotalAnalyses))
	}

	recent := s.RecentResults(reportRecentResults)
	if len(recent) > 0 {
		fmt.Fprintf(&b, "\nRecent Results (%d):\n", len(recent))
		for _, r := range recent {
			fmt.Fprintf(&b, "  %s [%s] %s\n", r.StageName, r.Health, r.Summary)
			for _, adj := range r.Adjustments {
				fmt.Fprintf(&b, "    suggest %s x%.2f\n", adj.Parameter, adj.Multiplier)
			}
		}
	}

	return b.String()
}

func pct(part, total int) float64 {
	return float64(part) / float64(total) * 100
}
