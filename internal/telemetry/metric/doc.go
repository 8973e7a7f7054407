// Package metric provides Prometheus metrics for the gateway.
//
// This package implements metrics collection and exposition:
//
//   - metric.go: Prometheus registry and HTTP handler
//   - collector.go: scrape-time session state collector
//
// Metrics include:
//
//   - HTTP request counters and latency histograms
//   - Session lifecycle counters and a per-state gauge
//   - Handshake, exchange key and credential counters
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
