package analyzer

import (
	"fmt"

	"github.com/driftwatch/driftwatch/internal/metric"
)

// Classification cutoffs used by the reducer. These are fixed policy, not
// per-metric thresholds: a failed or sub-0.3 metric counts as critical, a
// sub-0.7 metric as a warning.
const (
	reduceCriticalScore = 0.3
	reduceWarningScore  = 0.7

	criticalRatioLimit = 0.3
	warningRatioLimit  = 0.5
)

// Reduction is the aggregate verdict derived from one set of metric
// results.
type Reduction struct {
	Health        Health
	Summary       string
	OverallScore  float64
	CriticalCount int
	Adjustments   []metric.Suggestion
}

// Reduce folds a set of metric results into one verdict. An empty result
// set reduces to Healthy: absence of checks is not itself unhealthy.
//
// Health policy: Critical when more than 30% of metrics are critical;
// Degraded when any metric is critical or more than half are warnings;
// Healthy otherwise.
func Reduce(results []metric.Result) Reduction {
	if len(results) == 0 {
		return Reduction{Health: Healthy, Summary: "No metrics analyzed"}
	}

	var (
		criticalCount int
		warningCount  int
		passedCount   int
		scoreSum      float64
		issueCount    int
	)

	for _, r := range results {
		switch {
		case !r.Successful:
			criticalCount++
			issueCount++
		case r.Score < reduceCriticalScore:
			criticalCount++
		case r.Score < reduceWarningScore:
			warningCount++
		}

		if r.Successful {
			passedCount++
			scoreSum += r.Score
			if r.Score < reduceWarningScore {
				issueCount++
			}
		}
	}

	total := float64(len(results))
	criticalRatio := float64(criticalCount) / total
	warningRatio := float64(warningCount) / total

	health := Healthy
	switch {
	case criticalRatio > criticalRatioLimit:
		health = Critical
	case criticalCount > 0 || warningRatio > warningRatioLimit:
		health = Degraded
	}

	var avgScore float64
	if passedCount > 0 {
		avgScore = scoreSum / float64(passedCount)
	}

	summary := fmt.Sprintf("%d/%d metrics passed (avg score: %.1f%%)",
		passedCount, len(results), avgScore*100)
	if issueCount > 0 {
		summary += fmt.Sprintf(" | Issues: %d", issueCount)
	}

	var adjustments []metric.Suggestion
	for _, r := range results {
		if r.Successful && len(r.Suggestions) > 0 {
			adjustments = append(adjustments, r.Suggestions...)
		}
	}

	return Reduction{
		Health:        health,
		Summary:       summary,
		OverallScore:  avgScore,
		CriticalCount: criticalCount,
		Adjustments:   adjustments,
	}
}
