package metric

import "github.com/prometheus/client_golang/prometheus"

// SessionCounter reports the number of live sessions grouped by state.
type SessionCounter interface {
	CountByState() map[string]int
}

// SessionCollector exposes a per-state session gauge computed at scrape
// time, so the gauge never drifts from the registry it describes.
type SessionCollector struct {
	counter SessionCounter
	desc    *prometheus.Desc
}

// NewSessionCollector creates a collector over the given session counter.
func NewSessionCollector(counter SessionCounter) *SessionCollector {
	return &SessionCollector{
		counter: counter,
		desc: prometheus.NewDesc(
			"chatmesh_sessions",
			"Live sessions by lifecycle state.",
			[]string{"state"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	for state, n := range c.counter.CountByState() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), state)
	}
}
