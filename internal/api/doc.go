// Package api exposes the orchestrator's query surface over HTTP: recent
// results and system statistics as JSON, the plain-text analysis report,
// and a Prometheus exposition of the aggregate counters.
package api
