// Package analyzer runs a set of enabled metrics against one pair of
// stage snapshots and reduces their results into a single transition
// verdict.
//
// Dispatch is sequential or parallel (one unit of work per metric via the
// jobs pool); both paths produce identical results in metric request
// order, independent of completion order. The reduction in reduce.go is
// shared with the pipeline orchestrator so both surfaces classify health
// identically.
package analyzer
