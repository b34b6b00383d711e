package pipeline

import (
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/analyzer"
)

// DefaultHistoryCap is the bounded history size used when no capacity is
// configured.
const DefaultHistoryCap = 1000

// history is a bounded FIFO of analysis results. Append evicts the oldest
// entry once capacity is exceeded; eviction happens in the same critical
// section as the append.
type history struct {
	mu  sync.Mutex
	buf []analyzer.TransitionResult
	cap int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &history{cap: capacity}
}

func (h *history) append(r analyzer.TransitionResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = append(h.buf, r)
	if len(h.buf) > h.cap {
		h.buf = h.buf[len(h.buf)-h.cap:]
	}
}

func (h *history) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buf)
}

// recent returns up to max of the newest entries, oldest first.
func (h *history) recent(max int) []analyzer.TransitionResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	if max <= 0 || max > len(h.buf) {
		max = len(h.buf)
	}
	out := make([]analyzer.TransitionResult, max)
	copy(out, h.buf[len(h.buf)-max:])
	return out
}

// lastFor scans backwards for the most recent result matching the stage
// pair.
func (h *history) lastFor(fromID, toID uint32) (analyzer.TransitionResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.buf) - 1; i >= 0; i-- {
		if h.buf[i].FromStageID == fromID && h.buf[i].ToStageID == toID {
			return h.buf[i], true
		}
	}
	return analyzer.TransitionResult{}, false
}

// fold aggregates counts and total analysis time under one lock hold.
func (h *history) fold() (total int, healthy, degraded, critical int, totalTime time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range h.buf {
		switch r.Health {
		case analyzer.Healthy:
			healthy++
		case analyzer.Degraded:
			degraded++
		case analyzer.Critical:
			critical++
		}
		totalTime += r.AnalysisTime
	}
	return len(h.buf), healthy, degraded, critical, totalTime
}
