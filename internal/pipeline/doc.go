// Package pipeline owns the stage-graph orchestrator: a registry of named
// pipeline stages, pairwise transition analysis across the registered
// sequence, bounded result history, an optional background monitoring
// loop, and a single replaceable alert callback.
//
// The stage and metric registries are read-mostly maps under RW locks;
// handles are copied out before any analysis work runs. History is a
// FIFO deque under its own mutex. The alert callback is always invoked
// outside registry locks so it may call back into the orchestrator.
package pipeline
