package metric

import (
	"math"
	"sort"
)

// basicStats holds the first two moments of one data channel.
type basicStats struct {
	mean     float64
	variance float64
	stdDev   float64
}

// computeStats calculates mean, variance and standard deviation in one
// sequential pass. Accumulation is done in float64 regardless of the
// float32 input to keep long sums stable.
func computeStats(data []float32) basicStats {
	if len(data) == 0 {
		return basicStats{}
	}

	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	mean := sum / float64(len(data))

	var sq float64
	for _, v := range data {
		d := float64(v) - mean
		sq += d * d
	}
	variance := sq / float64(len(data))

	return basicStats{mean: mean, variance: variance, stdDev: math.Sqrt(variance)}
}

// Mean returns the arithmetic mean of data, or 0 for empty input.
func Mean(data []float32) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	return sum / float64(len(data))
}

// Variance returns the population variance of data, or 0 for empty input.
func Variance(data []float32) float64 {
	return computeStats(data).variance
}

// StdDev returns the population standard deviation of data.
func StdDev(data []float32) float64 {
	return computeStats(data).stdDev
}

// Range returns max-min of data, or 0 for empty input.
func Range(data []float32) float64 {
	if len(data) == 0 {
		return 0
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
	return float64(max - min)
}

// Percentile returns the value at the given percentile (0-100) using
// linear interpolation between the two nearest ranks. Returns 0 for
// empty input.
func Percentile(data []float32, percentile float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	for i, v := range data {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	idx := (percentile / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
