package analyzer

import (
	"time"

	"github.com/driftwatch/driftwatch/internal/metric"
)

// Health is the three-level verdict for one transition.
type Health int

const (
	Healthy Health = iota
	Degraded
	Critical
)

// String returns the lowercase name of the health level.
func (h Health) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	default:
		return "critical"
	}
}

// TransitionResult is the aggregated outcome of analyzing one stage
// transition. It is immutable after construction.
type TransitionResult struct {
	FromStageID uint32
	ToStageID   uint32
	StageName   string // composed "From -> To"

	MetricResults []metric.Result // in metric request order
	Health        Health
	OverallScore  float64 // average score of successful metrics
	CriticalCount int     // metrics classified critical by the reducer
	Summary       string
	Adjustments   []metric.Suggestion // merged suggestions, in metric order

	Successful   bool
	AnalysisTime time.Duration
	Timestamp    time.Time
}

// failedResult builds an unsuccessful TransitionResult with the given
// summary and a Critical verdict.
func failedResult(summary string) TransitionResult {
	return TransitionResult{
		Health:    Critical,
		Summary:   summary,
		Timestamp: time.Now(),
	}
}
