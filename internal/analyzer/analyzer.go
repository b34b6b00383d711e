package analyzer

import (
	"fmt"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/jobs"
	"github.com/driftwatch/driftwatch/internal/metric"
	"github.com/driftwatch/driftwatch/internal/snapshot"
)

// Statistics tracks rolling execution-time averages across analyses.
type Statistics struct {
	TotalTransitions int
	AverageTime      time.Duration
	MetricRuns       map[string]int
	MetricAverage    map[string]time.Duration
}

// Analyzer runs all enabled metrics against one (before, after) snapshot
// pair and produces one TransitionResult.
//
// All exported methods are safe for concurrent use. Two concurrent
// AnalyzeTransition calls interleave freely and are never deduplicated.
type Analyzer struct {
	registry *metric.Registry
	pool     *jobs.Pool
	parallel bool

	statsMu sync.Mutex
	stats   Statistics
}

// New creates an Analyzer over the given registry. When parallel is true
// and more than one metric is enabled, metrics are dispatched concurrently
// through pool.
func New(registry *metric.Registry, pool *jobs.Pool, parallel bool) *Analyzer {
	return &Analyzer{
		registry: registry,
		pool:     pool,
		parallel: parallel && pool != nil,
		stats:    newStatistics(),
	}
}

// NewStandard creates an Analyzer pre-wired with the standard metric set
// (currently StatisticalContinuity; frequency-domain and geological-realism
// metrics register here once implemented) and parallel dispatch enabled.
func NewStandard(pool *jobs.Pool) *Analyzer {
	a := New(metric.NewRegistry(), pool, true)
	a.RegisterMetric(metric.NewStatisticalContinuity(pool))
	return a
}

// NewRealTime creates an Analyzer wired for the monitoring loop: the same
// fast metric set, parallel dispatch enabled.
func NewRealTime(pool *jobs.Pool) *Analyzer {
	return NewStandard(pool)
}

// Registry returns the analyzer's metric registry.
func (a *Analyzer) Registry() *metric.Registry { return a.registry }

// RegisterMetric adds m to the registry. It returns false if a metric
// with the same name is already registered.
func (a *Analyzer) RegisterMetric(m metric.Metric) bool { return a.registry.Register(m) }

// EnableMetric toggles the named metric. Unknown names are a no-op.
func (a *Analyzer) EnableMetric(name string, enabled bool) { a.registry.Enable(name, enabled) }

// EnabledMetrics returns the names of enabled metrics in dispatch order.
func (a *Analyzer) EnabledMetrics() []string { return a.registry.Enabled() }

// AvailableMetrics returns all registered metric names.
func (a *Analyzer) AvailableMetrics() []string { return a.registry.Names() }

// AnalyzeTransition runs every enabled metric against the snapshot pair
// and reduces the results into one verdict. Failures are reported inside
// the returned result; the method never panics on malformed input.
func (a *Analyzer) AnalyzeTransition(before, after *snapshot.Snapshot) TransitionResult {
	start := time.Now()

	if err := snapshot.ValidatePair(before, after); err != nil {
		res := failedResult("Invalid snapshot data")
		if before != nil && after != nil {
			res.StageName = before.StageName + " -> " + after.StageName
		}
		return res
	}

	result := TransitionResult{
		StageName: before.StageName + " -> " + after.StageName,
		Timestamp: start,
	}

	enabled := a.registry.Enabled()
	if len(enabled) == 0 {
		result.Successful = true
		result.Health = Healthy
		result.Summary = "No metrics enabled"
		result.AnalysisTime = time.Since(start)
		return result
	}

	var timed []timedResult
	if a.parallel && len(enabled) > 1 {
		timed = a.runParallel(enabled, before, after)
	} else {
		timed = a.runSequential(enabled, before, after)
	}

	results := make([]metric.Result, len(timed))
	for i, tr := range timed {
		results[i] = tr.res
	}

	reduction := Reduce(results)
	result.MetricResults = results
	result.Health = reduction.Health
	result.Summary = reduction.Summary
	result.OverallScore = reduction.OverallScore
	result.CriticalCount = reduction.CriticalCount
	result.Adjustments = reduction.Adjustments
	result.Successful = true
	result.AnalysisTime = time.Since(start)

	// Statistics are written only after the dispatch batch fully completes,
	// under their own lock, never while metrics are executing.
	a.updateStats(enabled, timed, result.AnalysisTime)

	return result
}

// timedResult pairs one metric result with its measured execution time.
type timedResult struct {
	res     metric.Result
	elapsed time.Duration
}

// runOne executes one metric, converting a panic into a failed result
// scoped to that metric alone. A nil metric (name vanished between listing
// and dispatch) reports "Metric not found".
func runOne(m metric.Metric, name string, before, after *snapshot.Snapshot) (tr timedResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			tr.res = metric.Failed(name, fmt.Sprintf("Analysis failed: %v", r))
		}
		tr.elapsed = time.Since(start)
	}()

	if m == nil {
		tr.res = metric.Failed(name, "Metric not found")
		return tr
	}
	tr.res = m.AnalyzeTransition(before, after)
	return tr
}

// runSequential executes the metrics one at a time on the calling
// goroutine. Metric handles are copied out of the registry first, so no
// metric runs while the registry lock is held.
func (a *Analyzer) runSequential(names []string, before, after *snapshot.Snapshot) []timedResult {
	metrics := a.registry.Resolve(names)

	out := make([]timedResult, len(names))
	for i, name := range names {
		out[i] = runOne(metrics[i], name, before, after)
	}
	return out
}

// runParallel dispatches one unit of work per metric and awaits them all.
// Each work unit captures its own metric handle, not the registry, and
// results are collected in request order regardless of completion order.
func (a *Analyzer) runParallel(names []string, before, after *snapshot.Snapshot) []timedResult {
	metrics := a.registry.Resolve(names)

	handles := make([]*jobs.Handle[timedResult], len(names))
	for i, name := range names {
		m, name := metrics[i], name
		handles[i] = jobs.Submit(a.pool, "metric/"+name, func() timedResult {
			return runOne(m, name, before, after)
		})
	}

	out := make([]timedResult, len(names))
	for i, h := range handles {
		tr, err := h.Await()
		if err != nil {
			// runOne already absorbs panics; this is the pool-closed path.
			tr = timedResult{res: metric.Failed(names[i], err.Error())}
		}
		out[i] = tr
	}
	return out
}

// Statistics returns a copy of the rolling execution statistics.
func (a *Analyzer) Statistics() Statistics {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()

	out := Statistics{
		TotalTransitions: a.stats.TotalTransitions,
		AverageTime:      a.stats.AverageTime,
		MetricRuns:       make(map[string]int, len(a.stats.MetricRuns)),
		MetricAverage:    make(map[string]time.Duration, len(a.stats.MetricAverage)),
	}
	for k, v := range a.stats.MetricRuns {
		out.MetricRuns[k] = v
	}
	for k, v := range a.stats.MetricAverage {
		out.MetricAverage[k] = v
	}
	return out
}

// ResetStatistics clears all rolling averages and counts.
func (a *Analyzer) ResetStatistics() {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	a.stats = newStatistics()
}

func newStatistics() Statistics {
	return Statistics{
		MetricRuns:    make(map[string]int),
		MetricAverage: make(map[string]time.Duration),
	}
}

// updateStats folds one completed dispatch batch into the rolling
// averages.
func (a *Analyzer) updateStats(names []string, timed []timedResult, total time.Duration) {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()

	for i, name := range names {
		runs := a.stats.MetricRuns[name] + 1
		a.stats.MetricRuns[name] = runs

		prev := a.stats.MetricAverage[name]
		a.stats.MetricAverage[name] = rollingAverage(prev, runs, timed[i].elapsed)
	}

	a.stats.TotalTransitions++
	a.stats.AverageTime = rollingAverage(a.stats.AverageTime, a.stats.TotalTransitions, total)
}

// rollingAverage folds sample number n into a running mean.
func rollingAverage(prev time.Duration, n int, sample time.Duration) time.Duration {
	if n <= 1 {
		return sample
	}
	return time.Duration((int64(prev)*int64(n-1) + int64(sample)) / int64(n))
}
