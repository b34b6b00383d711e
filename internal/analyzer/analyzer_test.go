package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/driftwatch/driftwatch/internal/jobs"
	"github.com/driftwatch/driftwatch/internal/metric"
	"github.com/driftwatch/driftwatch/internal/snapshot"
)

// stubMetric returns a fixed Result, optionally sleeping or panicking
// first to exercise the dispatch paths.
type stubMetric struct {
	name    string
	score   float64
	fail    bool
	panics  bool
	delay   time.Duration
	suggest []metric.Suggestion
}

func (s *stubMetric) Name() string                   { return s.name }
func (s *stubMetric) Description() string            { return "stub" }
func (s *stubMetric) Version() string                { return "0.0.0" }
func (s *stubMetric) Thresholds() (float64, float64) { return 0.7, 0.3 }
func (s *stubMetric) SetThresholds(w, c float64)     {}

func (s *stubMetric) AnalyzeTransition(before, after *snapshot.Snapshot) metric.Result {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panics {
		panic("stub exploded")
	}
	if s.fail {
		return metric.Failed(s.name, "stub failure")
	}
	return metric.Result{
		MetricName:  s.name,
		Successful:  true,
		Score:       s.score,
		Suggestions: s.suggest,
	}
}

func pair(n int) (*snapshot.Snapshot, *snapshot.Snapshot) {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	b := snapshot.New("from", 1)
	b.SetChannel(snapshot.ChannelElevation, data)
	a := snapshot.New("to", 2)
	a.SetChannel(snapshot.ChannelElevation, data)
	return b, a
}

func newAnalyzer(parallel bool, metrics ...metric.Metric) (*Analyzer, *jobs.Pool) {
	pool := jobs.NewPool()
	a := New(metric.NewRegistry(), pool, parallel)
	for _, m := range metrics {
		a.RegisterMetric(m)
	}
	return a, pool
}

func TestAnalyzeTransition_NoMetricsEnabled(t *testing.T) {
	a, pool := newAnalyzer(false)
	defer pool.Close()

	before, after := pair(16)
	res := a.AnalyzeTransition(before, after)
	if !res.Successful {
		t.Fatal("expected success")
	}
	if res.Health != Healthy {
		t.Errorf("Health: got %v, want healthy", res.Health)
	}
	if res.Summary != "No metrics enabled" {
		t.Errorf("Summary: got %q", res.Summary)
	}
	if res.StageName != "from -> to" {
		t.Errorf("StageName: got %q", res.StageName)
	}
}

func TestAnalyzeTransition_InvalidSnapshots(t *testing.T) {
	a, pool := newAnalyzer(false, &stubMetric{name: "m", score: 1})
	defer pool.Close()

	res := a.AnalyzeTransition(nil, nil)
	if res.Successful {
		t.Fatal("expected failure for nil snapshots")
	}
	if res.Health != Critical {
		t.Errorf("Health: got %v, want critical", res.Health)
	}
	if res.Summary != "Invalid snapshot data" {
		t.Errorf("Summary: got %q", res.Summary)
	}
}

func TestAnalyzeTransition_SequentialOrder(t *testing.T) {
	a, pool := newAnalyzer(false,
		&stubMetric{name: "first", score: 0.9},
		&stubMetric{name: "second", score: 0.8},
		&stubMetric{name: "third", score: 1.0},
	)
	defer pool.Close()

	before, after := pair(16)
	res := a.AnalyzeTransition(before, after)

	want := []string{"first", "second", "third"}
	if len(res.MetricResults) != len(want) {
		t.Fatalf("MetricResults: got %d, want %d", len(res.MetricResults), len(want))
	}
	for i, name := range want {
		if res.MetricResults[i].MetricName != name {
			t.Errorf("result %d: got %q, want %q", i, res.MetricResults[i].MetricName, name)
		}
	}
}

func TestAnalyzeTransition_ParallelPreservesRequestOrder(t *testing.T) {
	// The slowest metric comes first; request order must still win over
	// completion order.
	a, pool := newAnalyzer(true,
		&stubMetric{name: "slow", score: 0.9, delay: 40 * time.Millisecond},
		&stubMetric{name: "mid", score: 0.8, delay: 15 * time.Millisecond},
		&stubMetric{name: "fast", score: 1.0},
	)
	defer pool.Close()

	before, after := pair(16)
	res := a.AnalyzeTransition(before, after)

	want := []string{"slow", "mid", "fast"}
	for i, name := range want {
		if res.MetricResults[i].MetricName != name {
			t.Errorf("result %d: got %q, want %q", i, res.MetricResults[i].MetricName, name)
		}
	}
}

func TestAnalyzeTransition_PanicIsolated(t *testing.T) {
	a, pool := newAnalyzer(true,
		&stubMetric{name: "ok", score: 0.95},
		&stubMetric{name: "bomb", panics: true},
	)
	defer pool.Close()

	before, after := pair(16)
	res := a.AnalyzeTransition(before, after)
	if !res.Successful {
		t.Fatal("analysis itself should succeed despite the metric panic")
	}

	var bomb metric.Result
	for _, mr := range res.MetricResults {
		if mr.MetricName == "bomb" {
			bomb = mr
		}
	}
	if bomb.Successful {
		t.Fatal("panicking metric reported success")
	}
	if !strings.Contains(bomb.Err, "Analysis failed") {
		t.Errorf("Err: got %q, want Analysis failed prefix", bomb.Err)
	}
}

func TestAnalyzeTransition_MergesAdjustmentsInOrder(t *testing.T) {
	a, pool := newAnalyzer(false,
		&stubMetric{name: "a", score: 0.5, suggest: []metric.Suggestion{{Parameter: "p1", Multiplier: 0.8}}},
		&stubMetric{name: "b", score: 0.5, suggest: []metric.Suggestion{{Parameter: "p2", Multiplier: 1.2}}},
	)
	defer pool.Close()

	before, after := pair(16)
	res := a.AnalyzeTransition(before, after)
	if len(res.Adjustments) != 2 {
		t.Fatalf("Adjustments: got %v", res.Adjustments)
	}
	if res.Adjustments[0].Parameter != "p1" || res.Adjustments[1].Parameter != "p2" {
		t.Errorf("Adjustments order: got %v", res.Adjustments)
	}
}

func TestReduce(t *testing.T) {
	ok := func(score float64) metric.Result {
		return metric.Result{MetricName: "m", Successful: true, Score: score}
	}
	failed := metric.Failed("m", "boom")

	tests := []struct {
		name         string
		results      []metric.Result
		wantHealth   Health
		wantCritical int
	}{
		{"empty", nil, Healthy, 0},
		{"all healthy", []metric.Result{ok(0.9), ok(0.95)}, Healthy, 0},
		{"single warning", []metric.Result{ok(0.5), ok(0.9), ok(0.9)}, Healthy, 0},
		{"warning majority", []metric.Result{ok(0.5), ok(0.6), ok(0.9)}, Degraded, 0},
		{"one critical of four", []metric.Result{ok(0.1), ok(0.9), ok(0.9), ok(0.9)}, Degraded, 1},
		{"critical ratio exceeded", []metric.Result{ok(0.1), ok(0.9)}, Critical, 1},
		{"failure counts critical", []metric.Result{failed, ok(0.9), ok(0.9), ok(0.9)}, Degraded, 1},
		{"all failed", []metric.Result{failed, failed}, Critical, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			red := Reduce(tt.results)
			if red.Health != tt.wantHealth {
				t.Errorf("Health: got %v, want %v", red.Health, tt.wantHealth)
			}
			if red.CriticalCount != tt.wantCritical {
				t.Errorf("CriticalCount: got %d, want %d", red.CriticalCount, tt.wantCritical)
			}
		})
	}
}

func TestReduce_SummaryFormat(t *testing.T) {
	red := Reduce([]metric.Result{
		{MetricName: "a", Successful: true, Score: 0.8},
		{MetricName: "b", Successful: true, Score: 0.6},
	})
	if red.Summary != "2/2 metrics passed (avg score: 70.0%) | Issues: 1" {
		t.Errorf("Summary: got %q", red.Summary)
	}

	clean := Reduce([]metric.Result{
		{MetricName: "a", Successful: true, Score: 1},
	})
	if clean.Summary != "1/1 metrics passed (avg score: 100.0%)" {
		t.Errorf("Summary: got %q", clean.Summary)
	}
}

func TestReduce_OverallScoreIgnoresFailures(t *testing.T) {
	red := Reduce([]metric.Result{
		metric.Failed("dead", "boom"),
		{MetricName: "live", Successful: true, Score: 0.8},
	})
	if red.OverallScore != 0.8 {
		t.Errorf("OverallScore: got %v, want 0.8", red.OverallScore)
	}
}

func TestStatistics_Rolling(t *testing.T) {
	a, pool := newAnalyzer(false, &stubMetric{name: "m", score: 1})
	defer pool.Close()

	before, after := pair(16)
	a.AnalyzeTransition(before, after)
	a.AnalyzeTransition(before, after)

	stats := a.Statistics()
	if stats.TotalTransitions != 2 {
		t.Errorf("TotalTransitions: got %d, want 2", stats.TotalTransitions)
	}
	if stats.MetricRuns["m"] != 2 {
		t.Errorf("MetricRuns: got %d, want 2", stats.MetricRuns["m"])
	}

	a.ResetStatistics()
	stats = a.Statistics()
	if stats.TotalTransitions != 0 || len(stats.MetricRuns) != 0 {
		t.Errorf("after reset: got %+v", stats)
	}
}

func TestStatistics_CopyIsIndependent(t *testing.T) {
	a, pool := newAnalyzer(false, &stubMetric{name: "m", score: 1})
	defer pool.Close()

	before, after := pair(16)
	a.AnalyzeTransition(before, after)

	snap1 := a.Statistics()
	snap1.MetricRuns["m"] = 999

	if a.Statistics().MetricRuns["m"] != 1 {
		t.Error("Statistics returned a shared map")
	}
}

func TestRollingAverage(t *testing.T) {
	avg := rollingAverage(0, 1, 100*time.Millisecond)
	if avg != 100*time.Millisecond {
		t.Errorf("first sample: got %v", avg)
	}
	avg = rollingAverage(avg, 2, 200*time.Millisecond)
	if avg != 150*time.Millisecond {
		t.Errorf("second sample: got %v", avg)
	}
}
