// Package metric provides Prometheus metrics for ChatMesh.
//
// It exposes metrics in Prometheus format for monitoring session
// lifecycle activity, handshake outcomes, exchange key churn, and
// HTTP request rates and latencies.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	gatherer   prometheus.Gatherer
	registerer prometheus.Registerer

	// Session metrics.
	SessionsCreated   prometheus.Counter
	SessionsRestored  prometheus.Counter
	SessionsDestroyed prometheus.Counter

	// Capability lifecycle events, labelled by event kind.
	CapabilityEvents *prometheus.CounterVec

	// Handshake metrics.
	HandshakeWaits    prometheus.Counter
	HandshakeTimeouts prometheus.Counter

	// Exchange key metrics.
	ExchangeKeysIssued   prometheus.Counter
	ExchangeKeysConsumed prometheus.Counter
	ExchangeKeysExpired  prometheus.Counter

	// Bearer credential metrics.
	CredentialsMinted prometheus.Counter

	// Inbound message count (content is pass-through, only volume is tracked).
	InboundMessages prometheus.Counter

	// HTTP metrics.
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates a metrics registry backed by its own Prometheus registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	return NewWith(reg, reg)
}

// NewNop creates a registry suitable for tests: metrics are recorded but
// never exported.
func NewNop() *Registry {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

// NewWith creates a registry using the given registerer and gatherer.
func NewWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		gatherer:   gatherer,
		registerer: reg,

		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_sessions_created_total",
			Help: "Sessions created through the authentication path.",
		}),
		SessionsRestored: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_sessions_restored_total",
			Help: "Sessions restored from the credential store at startup.",
		}),
		SessionsDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_sessions_destroyed_total",
			Help: "Sessions destroyed by logout, destroy or reconnection.",
		}),

		CapabilityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatmesh_capability_events_total",
			Help: "Capability lifecycle events by kind.",
		}, []string{"event"}),

		HandshakeWaits: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_handshake_waits_total",
			Help: "Bounded waits for a handshake artifact.",
		}),
		HandshakeTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_handshake_timeouts_total",
			Help: "Handshake waits that expired before a code was produced.",
		}),

		ExchangeKeysIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_exchange_keys_issued_total",
			Help: "Exchange keys issued.",
		}),
		ExchangeKeysConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_exchange_keys_consumed_total",
			Help: "Exchange keys consumed for a bearer credential.",
		}),
		ExchangeKeysExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_exchange_keys_expired_total",
			Help: "Exchange keys removed by the expiry sweep.",
		}),

		CredentialsMinted: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_credentials_minted_total",
			Help: "Bearer credentials minted.",
		}),

		InboundMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmesh_inbound_messages_total",
			Help: "Inbound messages observed across all sessions.",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatmesh_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatmesh_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// MustRegister registers additional collectors, such as the session
// state collector, with the underlying registry.
func (r *Registry) MustRegister(collectors ...prometheus.Collector) {
	r.registerer.MustRegister(collectors...)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
