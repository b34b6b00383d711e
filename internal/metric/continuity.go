package metric

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/jobs"
	"github.com/driftwatch/driftwatch/internal/snapshot"
)

// Performance cutovers for parallel execution. Purely performance knobs:
// the parallel paths produce the same values as the sequential ones up to
// floating-point summation order.
const (
	parallelStatsThreshold      = 10_000
	parallelContinuityThreshold = 50_000
	continuityChunks            = 8
)

// Suggestion policy constants. Kept verbatim for compatibility with
// downstream parameter tuning.
const (
	suggestionScoreCeiling = 0.7

	meanChangeSuggestLimit    = 500.0
	spatialSuggestLimit       = 0.7
	distributionSuggestLimit  = 0.3
	amplitudeReduceMultiplier = 0.8
	smoothingRaiseMultiplier  = 1.2
	strengthReduceMultiplier  = 0.9
)

// StatisticalContinuity scores a stage transition by how little the
// elevation channel changed, statistically and spatially. A score of 1
// means the transition left the field untouched.
//
// The zero value is not usable; construct with NewStatisticalContinuity.
type StatisticalContinuity struct {
	pool *jobs.Pool

	mu       sync.Mutex
	warning  float64
	critical float64
}

// NewStatisticalContinuity creates the metric. pool may be nil, in which
// case all analysis runs sequentially regardless of data size.
func NewStatisticalContinuity(pool *jobs.Pool) *StatisticalContinuity {
	return &StatisticalContinuity{
		pool:     pool,
		warning:  DefaultWarningThreshold,
		critical: DefaultCriticalThreshold,
	}
}

func (m *StatisticalContinuity) Name() string { return "StatisticalContinuity" }

func (m *StatisticalContinuity) Description() string {
	return "Analyzes statistical properties and continuity of terrain data during pipeline transitions"
}

func (m *StatisticalContinuity) Version() string { return "1.0.0" }

func (m *StatisticalContinuity) Thresholds() (warning, critical float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warning, m.critical
}

func (m *StatisticalContinuity) SetThresholds(warning, critical float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warning, m.critical = warning, critical
}

// statisticalAnalysis holds before/after moments and their absolute deltas.
type statisticalAnalysis struct {
	before, after  basicStats
	meanChange     float64
	stdDevChange   float64
	varianceChange float64
}

// continuityAnalysis holds the inverse-distance continuity scores.
type continuityAnalysis struct {
	spatial  float64
	gradient float64
}

// distributionAnalysis holds histogram-level change measures.
type distributionAnalysis struct {
	distance      float64
	beforeEntropy float64
	afterEntropy  float64
	entropyChange float64
}

// AnalyzeTransition scores the elevation change between two snapshots.
// Malformed input produces a failed Result; it never panics.
func (m *StatisticalContinuity) AnalyzeTransition(before, after *snapshot.Snapshot) Result {
	start := time.Now()

	if before == nil || !before.HasElevation() || after == nil || !after.HasElevation() {
		return Failed(m.Name(), "Missing elevation data for analysis")
	}
	b, a := before.Elevation(), after.Elevation()
	if len(b) != len(a) {
		return Failed(m.Name(), "Elevation data size mismatch")
	}
	if len(b) == 0 {
		return Failed(m.Name(), "Empty elevation data")
	}

	stats := m.analyzeStatistics(b, a)
	cont := m.analyzeContinuity(b, a)
	dist := analyzeDistribution(b, a)

	statisticalScore := statisticalScore(stats)
	continuityScore := (cont.spatial + cont.gradient) / 2
	distributionScore := distributionScore(dist)

	score := 0.4*statisticalScore + 0.4*continuityScore + 0.2*distributionScore

	warning, critical := m.Thresholds()
	res := Result{
		MetricName: m.Name(),
		Successful: true,
		Score:      score,
		Status:     statusFor(score, warning, critical),
		Detail:     detailMessage(stats, cont, dist),
		Duration:   time.Since(start),
	}
	if score < suggestionScoreCeiling {
		res.Suggestions = suggestions(stats, cont, dist)
	}
	return res
}

// analyzeStatistics computes before/after moments, in parallel above the
// size cutover when a pool is available.
func (m *StatisticalContinuity) analyzeStatistics(before, after []float32) statisticalAnalysis {
	var bs, as basicStats

	if m.pool != nil && len(before) > parallelStatsThreshold {
		bh := jobs.Submit(m.pool, "continuity/stats-before", func() basicStats {
			return computeStats(before)
		})
		ah := jobs.Submit(m.pool, "continuity/stats-after", func() basicStats {
			return computeStats(after)
		})
		// computeStats cannot panic, so the Handle errors are structurally
		// impossible here; fall back to sequential if one surfaces anyway.
		var errB, errA error
		bs, errB = bh.Await()
		as, errA = ah.Await()
		if errB != nil || errA != nil {
			bs, as = computeStats(before), computeStats(after)
		}
	} else {
		bs, as = computeStats(before), computeStats(after)
	}

	return statisticalAnalysis{
		before:         bs,
		after:          as,
		meanChange:     math.Abs(as.mean - bs.mean),
		stdDevChange:   math.Abs(as.stdDev - bs.stdDev),
		varianceChange: math.Abs(as.variance - bs.variance),
	}
}

// rowSums accumulates the per-row continuity terms. Merging chunk results
// is plain summation, so the chunked path matches the sequential one up to
// float summation order.
type rowSums struct {
	spatial  float64
	gradient float64
	cells    int
}

// analyzeContinuity treats the channel as a near-square grid of side
// round(sqrt(n)) and averages per-cell change magnitudes over all interior
// cells. Grids smaller than 3x3 are trivially continuous.
func (m *StatisticalContinuity) analyzeContinuity(before, after []float32) continuityAnalysis {
	n := len(before)
	width := int(math.Round(math.Sqrt(float64(n))))
	if width < 1 {
		width = 1
	}
	height := (n + width - 1) / width

	if width < 3 || height < 3 {
		return continuityAnalysis{spatial: 1, gradient: 1}
	}

	var total rowSums
	if m.pool != nil && n > parallelContinuityThreshold {
		total = m.continuityChunked(before, after, width, height)
	} else {
		total = continuityRows(before, after, width, 1, height-1)
	}

	var avgSpatial, avgGradient float64
	if total.cells > 0 {
		avgSpatial = total.spatial / float64(total.cells)
		avgGradient = total.gradient / float64(total.cells)
	}

	return continuityAnalysis{
		spatial:  1 / (1 + avgSpatial),
		gradient: 1 / (1 + avgGradient),
	}
}

// continuityRows sums the spatial and gradient terms over interior cells
// of rows [fromRow, toRow).
func continuityRows(before, after []float32, width, fromRow, toRow int) rowSums {
	var sums rowSums
	n := len(before)

	for y := fromRow; y < toRow; y++ {
		for x := 1; x < width-1; x++ {
			idx := y*width + x
			if idx+1 >= n {
				continue
			}

			sums.spatial += math.Abs(float64(after[idx]) - float64(before[idx]))

			beforeGrad := math.Abs(float64(before[idx+1]) - float64(before[idx-1]))
			afterGrad := math.Abs(float64(after[idx+1]) - float64(after[idx-1]))
			sums.gradient += math.Abs(afterGrad - beforeGrad)

			sums.cells++
		}
	}
	return sums
}

// continuityChunked splits the interior rows into contiguous chunks, runs
// each chunk as one unit of work, and merges the sums in chunk order.
func (m *StatisticalContinuity) continuityChunked(before, after []float32, width, height int) rowSums {
	firstRow, lastRow := 1, height-1
	rows := lastRow - firstRow
	chunks := continuityChunks
	if rows < chunks {
		chunks = rows
	}

	handles := make([]*jobs.Handle[rowSums], 0, chunks)
	chunkSize := (rows + chunks - 1) / chunks
	for c := 0; c < chunks; c++ {
		from := firstRow + c*chunkSize
		to := from + chunkSize
		if to > lastRow {
			to = lastRow
		}
		if from >= to {
			break
		}
		handles = append(handles, jobs.Submit(m.pool, "continuity/rows", func() rowSums {
			return continuityRows(before, after, width, from, to)
		}))
	}

	var total rowSums
	for _, h := range handles {
		sums, err := h.Await()
		if err != nil {
			continue
		}
		total.spatial += sums.spatial
		total.gradient += sums.gradient
		total.cells += sums.cells
	}
	return total
}

// analyzeDistribution compares the two value distributions via 64-bin
// histograms: KS distance plus absolute Shannon entropy change.
func analyzeDistribution(before, after []float32) distributionAnalysis {
	bh := computeHistogram(before, histogramBins)
	ah := computeHistogram(after, histogramBins)

	be := entropy(bh)
	ae := entropy(ah)

	return distributionAnalysis{
		distance:      ksDistance(bh, ah),
		beforeEntropy: be,
		afterEntropy:  ae,
		entropyChange: math.Abs(ae - be),
	}
}

// statisticalScore converts moment deltas to a bounded score. The divisors
// normalize each delta to the scale at which it stops being benign.
func statisticalScore(a statisticalAnalysis) float64 {
	meanScore := 1 / (1 + a.meanChange/1000)
	stdDevScore := 1 / (1 + a.stdDevChange/500)
	varianceScore := 1 / (1 + a.varianceChange/1_000_000)
	return (meanScore + stdDevScore + varianceScore) / 3
}

func distributionScore(a distributionAnalysis) float64 {
	distanceScore := 1 / (1 + a.distance*10)
	entropyScore := 1 / (1 + a.entropyChange)
	return (distanceScore + entropyScore) / 2
}

// detailMessage renders the numeric breakdown included with every
// successful result.
func detailMessage(s statisticalAnalysis, c continuityAnalysis, d distributionAnalysis) string {
	return fmt.Sprintf(
		"Statistical Analysis: Mean change: %.3fm, StdDev change: %.3fm | "+
			"Continuity: %.1f%% spatial, %.1f%% gradient | Distribution distance: %.4f",
		s.meanChange, s.stdDevChange,
		c.spatial*100, c.gradient*100,
		d.distance,
	)
}

// suggestions emits advisory parameter adjustments for low-scoring
// transitions.
func suggestions(s statisticalAnalysis, c continuityAnalysis, d distributionAnalysis) []Suggestion {
	var out []Suggestion
	if s.meanChange > meanChangeSuggestLimit {
		out = append(out, Suggestion{Parameter: "noise_amplitude", Multiplier: amplitudeReduceMultiplier})
	}
	if c.spatial < spatialSuggestLimit {
		out = append(out, Suggestion{Parameter: "smoothing_factor", Multiplier: smoothingRaiseMultiplier})
	}
	if d.distance > distributionSuggestLimit {
		out = append(out, Suggestion{Parameter: "processing_strength", Multiplier: strengthReduceMultiplier})
	}
	return out
}
