package metric

import "math"

// histogramBins is the fixed bin count used for distribution comparison.
const histogramBins = 64

// computeHistogram builds a normalized histogram of data over numBins bins.
// Bin edges span [min, max] of the data itself. Zero-range data (all values
// equal) places all mass in bin 0, so the result is always a valid
// probability mass function for non-empty input.
func computeHistogram(data []float32, numBins int) []float64 {
	hist := make([]float64, numBins)
	if len(data) == 0 {
		return hist
	}

	min, max := data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		hist[0] = 1
		return hist
	}

	binWidth := float64(max-min) / float64(numBins)
	for _, v := range data {
		idx := int(float64(v-min) / binWidth)
		if idx < 0 {
			idx = 0
		}
		if idx >= numBins {
			idx = numBins - 1
		}
		hist[idx]++
	}

	total := float64(len(data))
	for i := range hist {
		hist[i] /= total
	}
	return hist
}

// ksDistance returns the Kolmogorov-Smirnov statistic between two
// histograms: the maximum absolute difference of their cumulative
// distributions. For two valid probability mass functions the result is
// in [0, 1]. Mismatched bin counts return 1 (maximal distance).
func ksDistance(hist1, hist2 []float64) float64 {
	if len(hist1) != len(hist2) {
		return 1
	}

	var maxDiff, cdf1, cdf2 float64
	for i := range hist1 {
		cdf1 += hist1[i]
		cdf2 += hist2[i]
		if d := math.Abs(cdf1 - cdf2); d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

// entropy returns the base-2 Shannon entropy of a normalized histogram,
// summed only over bins with positive mass. Always >= 0.
func entropy(hist []float64) float64 {
	var h float64
	for _, p := range hist {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}
