package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/driftwatch/driftwatch/internal/pipeline"
)

// defaultResultLimit caps /results responses when no limit is given.
const defaultResultLimit = 50

// Handler is the HTTP handler for all /api/v1/* endpoints plus the
// Prometheus /metrics exposition. It reads from the analysis system and
// returns JSON responses.
type Handler struct {
	sys *pipeline.System
	mux *http.ServeMux
}

// New creates a Handler wired to the given analysis system and registers
// all routes.
func New(sys *pipeline.System) http.Handler {
	h := &Handler{sys: sys, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/results", h.results)
	h.mux.HandleFunc("/api/v1/results/last", h.lastResult)
	h.mux.HandleFunc("/api/v1/statistics", h.statistics)
	h.mux.HandleFunc("/api/v1/metrics", h.metrics)
	h.mux.HandleFunc("/api/v1/report", h.report)
	h.mux.HandleFunc("/metrics", h.exposition)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// results returns GET /api/v1/results?limit=N — the newest history
// entries, oldest first.
func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultResultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results := h.sys.RecentResults(limit)
	out := make([]ResultView, 0, len(results))
	for _, res := range results {
		out = append(out, toResultView(res))
	}
	jsonResp(w, http.StatusOK, out)
}

// lastResult returns GET /api/v1/results/last?from=A&to=B — the most
// recent result for one stage pair.
func (h *Handler) lastResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, errFrom := parseStageID(r.URL.Query().Get("from"))
	to, errTo := parseStageID(r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		jsonErr(w, http.StatusBadRequest, "from and to must be stage IDs")
		return
	}

	jsonResp(w, http.StatusOK, toResultView(h.sys.LastResultForTransition(from, to)))
}

// statistics returns GET /api/v1/statistics — aggregate counts over the
// current history.
func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, toStatisticsResponse(h.sys.Statistics()))
}

// metrics returns GET /api/v1/metrics — registered and enabled metric
// names.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, MetricsResponse{
		Available: h.sys.AvailableMetrics(),
		Enabled:   h.sys.EnabledMetrics(),
	})
}

// report returns GET /api/v1/report — the plain-text analysis report.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.sys.GenerateAnalysisReport())) //nolint:errcheck
}

// --- helpers ----------------------------------------------------------------

func parseStageID(raw string) (uint32, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	return uint32(n), err
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
