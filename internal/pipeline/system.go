package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/analyzer"
	"github.com/driftwatch/driftwatch/internal/metric"
	"github.com/driftwatch/driftwatch/internal/snapshot"
)

// DefaultMonitorInterval is the sleep between monitoring iterations when
// none is configured.
const DefaultMonitorInterval = 100 * time.Millisecond

// Alert thresholds: a transition triggers the alert callback when any
// metric was classified critical or the overall score drops below this.
const alertScoreFloor = 0.5

// Stage is the collaborator interface a pipeline stage presents to the
// orchestrator. Capture methods return nil when no snapshot is available.
type Stage interface {
	StageID() uint32
	StageName() string
	CaptureOutputSnapshot() *snapshot.Snapshot
	CaptureInputSnapshot() *snapshot.Snapshot
}

// AlertFunc receives every unhealthy transition result. It is invoked
// synchronously from the analyzing goroutine, outside any registry lock,
// so implementations may call back into the System.
type AlertFunc func(analyzer.TransitionResult)

// Options configures a System.
type Options struct {
	// MonitorInterval is the sleep between monitoring iterations.
	// Defaults to DefaultMonitorInterval.
	MonitorInterval time.Duration

	// HistoryCap bounds the result history. Defaults to DefaultHistoryCap.
	HistoryCap int
}

// SystemStatistics is an aggregate view over the current history,
// computed at call time rather than incrementally maintained.
type SystemStatistics struct {
	TotalAnalyses       int
	HealthyCount        int
	DegradedCount       int
	CriticalCount       int
	AverageAnalysisTime time.Duration
	ActiveMetrics       int
}

// System drives differential analysis across a directed sequence of named
// pipeline stages. Registration order defines the traversal order for
// full-pipeline analysis.
//
// All exported methods are safe for concurrent use. Multiple System
// instances are fully independent.
type System struct {
	analyzer *analyzer.Analyzer
	interval time.Duration

	stageMu sync.RWMutex
	stages  map[uint32]Stage
	order   []uint32

	history *history

	alertMu sync.Mutex
	alert   AlertFunc

	monMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a System that dispatches and reduces through a.
func New(a *analyzer.Analyzer, opts Options) *System {
	interval := opts.MonitorInterval
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &System{
		analyzer: a,
		interval: interval,
		stages:   make(map[uint32]Stage),
		history:  newHistory(opts.HistoryCap),
	}
}

// RegisterStage adds stage to the traversal sequence. It returns false,
// leaving the registry unchanged, if a stage with the same ID is already
// registered.
func (s *System) RegisterStage(stage Stage) bool {
	if stage == nil {
		return false
	}
	s.stageMu.Lock()
	defer s.stageMu.Unlock()

	id := stage.StageID()
	if _, exists := s.stages[id]; exists {
		return false
	}
	s.stages[id] = stage
	s.order = append(s.order, id)
	return true
}

// UnregisterStage removes the stage from both the lookup map and the
// traversal order. It returns false if the ID is unknown.
func (s *System) UnregisterStage(id uint32) bool {
	s.stageMu.Lock()
	defer s.stageMu.Unlock()

	if _, exists := s.stages[id]; !exists {
		return false
	}
	delete(s.stages, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// ClearStages removes every registered stage.
func (s *System) ClearStages() {
	s.stageMu.Lock()
	defer s.stageMu.Unlock()
	s.stages = make(map[uint32]Stage)
	s.order = nil
}

// StageCount returns the number of registered stages.
func (s *System) StageCount() int {
	s.stageMu.RLock()
	defer s.stageMu.RUnlock()
	return len(s.stages)
}

// RegisterMetric delegates to the metric registry with the same
// duplicate-rejection semantics.
func (s *System) RegisterMetric(m metric.Metric) bool { return s.analyzer.RegisterMetric(m) }

// EnableMetric toggles the named metric. Unknown names are a no-op.
func (s *System) EnableMetric(name string, enabled bool) { s.analyzer.EnableMetric(name, enabled) }

// EnabledMetrics returns the names of enabled metrics in dispatch order.
func (s *System) EnabledMetrics() []string { return s.analyzer.EnabledMetrics() }

// AvailableMetrics returns all registered metric names.
func (s *System) AvailableMetrics() []string { return s.analyzer.AvailableMetrics() }

// Analyzer returns the underlying transition analyzer.
func (s *System) Analyzer() *analyzer.Analyzer { return s.analyzer }

// SetAlertCallback replaces the single alert sink. A nil callback
// disables alerting.
func (s *System) SetAlertCallback(fn AlertFunc) {
	s.alertMu.Lock()
	defer s.alertMu.Unlock()
	s.alert = fn
}

// AnalyzeTransition captures a snapshot pair from the two stages, runs all
// enabled metrics, appends the verdict to history, and triggers the alert
// callback if the transition is unhealthy.
//
// Unknown stage IDs and capture failures are reported via an unsuccessful
// result; they are not recorded in history.
func (s *System) AnalyzeTransition(fromID, toID uint32) analyzer.TransitionResult {
	// Copy stage handles out under the read lock; capture and analysis run
	// without it so registration never blocks behind a long analysis.
	s.stageMu.RLock()
	from, fromOK := s.stages[fromID]
	to, toOK := s.stages[toID]
	s.stageMu.RUnlock()

	if !fromOK || !toOK {
		res := failed(fromID, toID, "Invalid stage IDs")
		slog.Warn("pipeline: transition analysis skipped", "from", fromID, "to", toID, "reason", res.Summary)
		return res
	}

	before := from.CaptureOutputSnapshot()
	after := to.CaptureInputSnapshot()
	if before == nil || after == nil {
		res := failed(fromID, toID, "Failed to capture snapshots")
		res.StageName = from.StageName() + " -> " + to.StageName()
		slog.Warn("pipeline: snapshot capture failed", "stage", res.StageName)
		return res
	}

	result := s.analyzer.AnalyzeTransition(before, after)
	result.FromStageID = fromID
	result.ToStageID = toID
	result.StageName = from.StageName() + " -> " + to.StageName()

	s.history.append(result)

	// A healthy verdict never alerts: its score is at least 0.5 when any
	// metric ran, and the no-metrics verdict scores zero without damage.
	unhealthy := result.CriticalCount > 0 || result.OverallScore < alertScoreFloor
	if unhealthy && result.Health != analyzer.Healthy {
		s.fireAlert(result)
	}
	return result
}

// AnalyzeFullPipeline analyzes every adjacent stage pair in traversal
// order. Fewer than two registered stages yields an empty slice. One
// failing transition never aborts the rest.
func (s *System) AnalyzeFullPipeline() []analyzer.TransitionResult {
	s.stageMu.RLock()
	order := append([]uint32(nil), s.order...)
	s.stageMu.RUnlock()

	if len(order) < 2 {
		return nil
	}

	results := make([]analyzer.TransitionResult, 0, len(order)-1)
	for i := 0; i < len(order)-1; i++ {
		results = append(results, s.AnalyzeTransition(order[i], order[i+1]))
	}
	return results
}

// StartRealTimeMonitoring launches the background loop that repeatedly
// analyzes the full pipeline, sleeping the configured interval between
// iterations. Starting while already running is a no-op.
func (s *System) StartRealTimeMonitoring() {
	s.monMu.Lock()
	defer s.monMu.Unlock()

	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done

	slog.Info("pipeline: real-time monitoring started", "interval", s.interval)

	go func() {
		defer close(done)
		for {
			// The stop flag is checked once per iteration; in-flight work in
			// a single pass runs to completion.
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.AnalyzeFullPipeline()

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.interval):
			}
		}
	}()
}

// StopRealTimeMonitoring signals the monitoring loop to stop and blocks
// until it has exited. Stopping while stopped is a no-op.
func (s *System) StopRealTimeMonitoring() {
	s.monMu.Lock()
	defer s.monMu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	<-s.done
	s.running = false
	s.cancel = nil
	s.done = nil

	slog.Info("pipeline: real-time monitoring stopped")
}

// MonitoringActive reports whether the background loop is running.
func (s *System) MonitoringActive() bool {
	s.monMu.Lock()
	defer s.monMu.Unlock()
	return s.running
}

// RecentResults returns up to max of the newest history entries, oldest
// first.
func (s *System) RecentResults(max int) []analyzer.TransitionResult {
	return s.history.recent(max)
}

// LastResultForTransition returns the most recent history entry for the
// exact stage pair, or a synthetic failed result if none exists.
func (s *System) LastResultForTransition(fromID, toID uint32) analyzer.TransitionResult {
	if res, ok := s.history.lastFor(fromID, toID); ok {
		return res
	}
	return failed(fromID, toID, "No previous analysis found")
}

// Statistics aggregates counts and the average analysis time from the
// current history.
func (s *System) Statistics() SystemStatistics {
	total, healthy, degraded, critical, totalTime := s.history.fold()

	stats := SystemStatistics{
		TotalAnalyses: total,
		HealthyCount:  healthy,
		DegradedCount: degraded,
		CriticalCount: critical,
		ActiveMetrics: len(s.analyzer.EnabledMetrics()),
	}
	if total > 0 {
		stats.AverageAnalysisTime = totalTime / time.Duration(total)
	}
	return stats
}

// fireAlert invokes the alert callback, if set, outside every registry
// lock.
func (s *System) fireAlert(result analyzer.TransitionResult) {
	s.alertMu.Lock()
	fn := s.alert
	s.alertMu.Unlock()

	if fn == nil {
		return
	}
	slog.Warn("pipeline: unhealthy transition",
		"stage", result.StageName,
		"health", result.Health.String(),
		"score", result.OverallScore,
		"critical_metrics", result.CriticalCount,
	)
	fn(result)
}

func failed(fromID, toID uint32, summary string) analyzer.TransitionResult {
	return analyzer.TransitionResult{
		FromStageID: fromID,
		ToStageID:   toID,
		Health:      analyzer.Critical,
		Summary:     summary,
		Timestamp:   time.Now(),
	}
}
