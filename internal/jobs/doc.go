// Package jobs provides the work dispatcher used for parallel metric
// evaluation: Submit schedules a labelled unit of work and returns a
// typed Handle that can be awaited. Panics inside a unit of work are
// recovered and surfaced as the Handle's error, never propagated to
// the submitter's goroutine.
package jobs
