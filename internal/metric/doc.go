// Package metric defines the pluggable quality checks run against stage
// transitions and a name-keyed registry with per-metric enable flags.
//
// continuity.go provides the one concrete metric, StatisticalContinuity,
// which scores a transition by blending three analyses of the elevation
// channel: statistical deltas (mean/stddev/variance), spatial and gradient
// continuity over the sample grid, and distribution change (64-bin
// histograms compared via Kolmogorov-Smirnov distance and Shannon entropy).
//
// stats.go and histogram.go hold the numeric helpers; both are defined for
// degenerate inputs (empty data, zero-range histograms).
package metric
