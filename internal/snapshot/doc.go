// Package snapshot defines the data capture exchanged between pipeline
// stages and the analysis subsystem: a named bundle of equal-length
// float32 channels plus stage metadata. Snapshots are treated as
// immutable once handed to an analyzer.
package snapshot
