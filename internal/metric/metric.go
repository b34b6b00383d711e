package metric

import (
	"time"

	"github.com/driftwatch/driftwatch/internal/snapshot"
)

// Status classifies one metric result against the metric's thresholds.
type Status int

const (
	StatusHealthy Status = iota
	StatusWarning
	StatusCritical
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusWarning:
		return "warning"
	default:
		return "critical"
	}
}

// Default score thresholds. A score at or above the warning threshold is
// healthy; below the critical threshold is critical.
const (
	DefaultWarningThreshold  = 0.7
	DefaultCriticalThreshold = 0.3
)

// Suggestion is one advisory parameter adjustment emitted by a metric:
// multiply the named pipeline parameter by Multiplier.
type Suggestion struct {
	Parameter  string  `json:"parameter"`
	Multiplier float64 `json:"multiplier"`
}

// Result is the outcome of running one metric against one transition.
//
// Invariant: Err is non-empty exactly when Successful is false.
type Result struct {
	MetricName  string
	Successful  bool
	Score       float64 // in [0,1]; 1 = perfectly continuous
	Status      Status
	Detail      string
	Err         string // set only on failure
	Suggestions []Suggestion
	Duration    time.Duration
}

// Failed builds a failed Result for the named metric.
func Failed(name, errMsg string) Result {
	return Result{
		MetricName: name,
		Successful: false,
		Status:     StatusCritical,
		Err:        errMsg,
	}
}

// Metric is one pluggable transition check. Implementations must be pure
// functions of the two snapshots plus their configured thresholds: no
// shared mutable state beyond metric-local counters, and safe for
// concurrent AnalyzeTransition calls.
type Metric interface {
	// Name is the unique registry key for this metric.
	Name() string

	// Description is a one-line human summary of what the metric checks.
	Description() string

	// Version is the metric's semantic version string.
	Version() string

	// Thresholds returns the warning and critical score thresholds.
	Thresholds() (warning, critical float64)

	// SetThresholds replaces both score thresholds.
	SetThresholds(warning, critical float64)

	// AnalyzeTransition scores the change between the two snapshots.
	// Malformed input is reported via a failed Result, never a panic.
	AnalyzeTransition(before, after *snapshot.Snapshot) Result
}

// statusFor maps a score to a status using the given thresholds.
func statusFor(score, warning, critical float64) Status {
	switch {
	case score < critical:
		return StatusCritical
	case score < warning:
		return StatusWarning
	default:
		return StatusHealthy
	}
}
