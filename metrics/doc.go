// Package metrics defines the Prometheus collectors shared across the
// registry backend and a standalone listener that serves them.
package metrics
