// Package metrics exposes the notifier's Prometheus metrics.
//
// Components receive a Recorder. NoopRecorder is the default so nothing has
// to check for a missing registry; PrometheusRecorder is swapped in by the
// binaries that serve /metrics.
package metrics
