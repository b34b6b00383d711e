package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/driftwatch/driftwatch/internal/analyzer"
	"github.com/driftwatch/driftwatch/internal/api"
	"github.com/driftwatch/driftwatch/internal/jobs"
	"github.com/driftwatch/driftwatch/internal/pipeline"
	"github.com/driftwatch/driftwatch/internal/snapshot"
)

// --- fixtures ---------------------------------------------------------------

type flatStage struct {
	id   uint32
	name string
}

func (f *flatStage) StageID() uint32   { return f.id }
func (f *flatStage) StageName() string { return f.name }

func (f *flatStage) CaptureOutputSnapshot() *snapshot.Snapshot { return f.capture() }
func (f *flatStage) CaptureInputSnapshot() *snapshot.Snapshot  { return f.capture() }

func (f *flatStage) capture() *snapshot.Snapshot {
	data := make([]float32, 64)
	for i := range data {
		data[i] = 500
	}
	s := snapshot.New(f.name, f.id)
	s.SetChannel(snapshot.ChannelElevation, data)
	return s
}

// newServer builds a system with one real metric, two stages and one
// recorded analysis, wrapped in a test HTTP server.
func newServer(t *testing.T) (*httptest.Server, *pipeline.System) {
	t.Helper()

	pool := jobs.NewPool()
	t.Cleanup(pool.Close)

	sys := pipeline.New(analyzer.NewStandard(pool), pipeline.Options{})
	sys.RegisterStage(&flatStage{id: 1, name: "noise"})
	sys.RegisterStage(&flatStage{id: 2, name: "erosion"})
	sys.AnalyzeTransition(1, 2)

	srv := httptest.NewServer(api.New(sys))
	t.Cleanup(srv.Close)
	return srv, sys
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// --- tests ------------------------------------------------------------------

func TestResults(t *testing.T) {
	srv, _ := newServer(t)

	resp := get(t, srv.URL+"/api/v1/results")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var results []api.ResultView
	decode(t, resp, &results)
	if len(results) != 1 {
		t.Fatalf("results: got %d, want 1", len(results))
	}
	r := results[0]
	if r.Stage != "noise -> erosion" {
		t.Errorf("Stage: got %q", r.Stage)
	}
	if !r.Successful || r.Health != "healthy" {
		t.Errorf("verdict: got successful=%v health=%q", r.Successful, r.Health)
	}
	if len(r.Metrics) != 1 || r.Metrics[0].Name != "StatisticalContinuity" {
		t.Errorf("Metrics: got %+v", r.Metrics)
	}
}

func TestResults_BadLimit(t *testing.T) {
	srv, _ := newServer(t)

	for _, raw := range []string{"0", "-2", "abc"} {
		resp := get(t, srv.URL+"/api/v1/results?limit="+raw)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: got status %d, want 400", raw, resp.StatusCode)
		}
	}
}

func TestLastResult(t *testing.T) {
	srv, _ := newServer(t)

	var r api.ResultView
	decode(t, get(t, srv.URL+"/api/v1/results/last?from=1&to=2"), &r)
	if !r.Successful {
		t.Errorf("expected recorded result, got %+v", r)
	}

	var missing api.ResultView
	decode(t, get(t, srv.URL+"/api/v1/results/last?from=5&to=6"), &missing)
	if missing.Successful || missing.Summary != "No previous analysis found" {
		t.Errorf("missing pair: got %+v", missing)
	}

	resp := get(t, srv.URL+"/api/v1/results/last?from=x&to=2")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad stage ID: got status %d", resp.StatusCode)
	}
}

func TestStatistics(t *testing.T) {
	srv, _ := newServer(t)

	var stats api.StatisticsResponse
	decode(t, get(t, srv.URL+"/api/v1/statistics"), &stats)
	if stats.TotalAnalyses != 1 {
		t.Errorf("TotalAnalyses: got %d, want 1", stats.TotalAnalyses)
	}
	if stats.HealthyCount != 1 {
		t.Errorf("HealthyCount: got %d, want 1", stats.HealthyCount)
	}
	if stats.ActiveMetrics != 1 {
		t.Errorf("ActiveMetrics: got %d, want 1", stats.ActiveMetrics)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, sys := newServer(t)
	sys.EnableMetric("StatisticalContinuity", false)

	var m api.MetricsResponse
	decode(t, get(t, srv.URL+"/api/v1/metrics"), &m)
	if len(m.Available) != 1 || m.Available[0] != "StatisticalContinuity" {
		t.Errorf("Available: got %v", m.Available)
	}
	if len(m.Enabled) != 0 {
		t.Errorf("Enabled: got %v, want empty after disable", m.Enabled)
	}
}

func TestReport(t *testing.T) {
	srv, _ := newServer(t)

	resp := get(t, srv.URL+"/api/v1/report")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q", ct)
	}

	body := readBody(t, resp)
	for _, want := range []string{"Differential Analysis Report", "Total Analyses: 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestExposition(t *testing.T) {
	srv, _ := newServer(t)

	resp := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	for _, want := range []string{
		"driftwatch_analyses_total 1",
		"driftwatch_active_metrics 1",
		`driftwatch_results_by_health{health="healthy"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t)

	for _, path := range []string{
		"/api/v1/results",
		"/api/v1/statistics",
		"/api/v1/metrics",
		"/api/v1/report",
	} {
		resp, err := http.Post(srv.URL+path, "application/json", nil)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got status %d, want 405", path, resp.StatusCode)
		}
	}
}

func TestRecentResultViews(t *testing.T) {
	_, sys := newServer(t)

	views := api.RecentResultViews(sys, 10)
	if len(views) != 1 {
		t.Fatalf("views: got %d, want 1", len(views))
	}
	if views[0].Stage != "noise -> erosion" {
		t.Errorf("Stage: got %q", views[0].Stage)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
