// Package ws pushes fresh analysis results to WebSocket clients. The hub
// broadcasts the newest history entries on a fixed interval and on
// connect, and drops clients whose outgoing buffer stays full.
package ws
