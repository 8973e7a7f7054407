package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/service"
	"github.com/yndnr/chatmesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Lifecycle   *service.LifecycleController
	Status      *service.StatusReporter
	Issuer      *service.ExchangeKeyIssuer
	Credentials *service.CredentialService
	Metrics     *metric.Registry
	Logger      *slog.Logger

	CodeWaitTimeout time.Duration

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	MetricsEnabled bool
}

// NewRouter assembles the full route table with per-group middleware:
// handshake endpoints are open but rate limited, session endpoints
// additionally require a bearer credential, ops endpoints carry only
// the base chain.
func NewRouter(cfg RouterConfig) http.Handler {
	h := handler.New(handler.Config{
		Lifecycle:       cfg.Lifecycle,
		Status:          cfg.Status,
		Issuer:          cfg.Issuer,
		Credentials:     cfg.Credentials,
		Metrics:         cfg.Metrics,
		Logger:          cfg.Logger,
		CodeWaitTimeout: cfg.CodeWaitTimeout,
	})

	base := []Middleware{
		Recover(cfg.Logger),
		RequestID(),
		Logging(cfg.Logger),
		Observe(cfg.Metrics),
	}

	public := base
	if cfg.RateLimitEnabled {
		public = append(append([]Middleware{}, base...),
			RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	protected := append(append([]Middleware{}, public...),
		BearerAuth(cfg.Credentials))

	mux := http.NewServeMux()

	mux.Handle("GET /auth", Chain(h, public...))
	mux.Handle("POST /get-token", Chain(h, public...))

	for _, route := range []string{
		"POST /send-message",
		"GET /status",
		"GET /my-sessions",
		"POST /logout",
		"GET /contacts",
		"GET /chats",
		"GET /chats/{id}",
		"GET /chats/{id}/messages",
		"GET /profile",
		"GET /profile-picture",
		"POST /check-number",
		"POST /block",
		"POST /unblock",
		"POST /group",
		"POST /group/{id}/participants/add",
		"POST /group/{id}/participants/remove",
	} {
		mux.Handle(route, Chain(h, protected...))
	}

	mux.Handle("GET /health", Chain(healthHandler(), base...))
	mux.Handle("GET /ready", Chain(readyHandler(), base...))
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(),
			Recover(cfg.Logger), RequestID()))
	}

	return mux
}
