// Package handler implements the HTTP endpoints of the gateway.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
	"github.com/yndnr/chatmesh-go/internal/core/service"
	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
)

type claimsContextKey struct{}

// WithClaims attaches verified bearer claims to the context.
func WithClaims(ctx context.Context, claims *domain.BearerClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts the verified bearer claims, if present.
func ClaimsFromContext(ctx context.Context) (*domain.BearerClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*domain.BearerClaims)
	return claims, ok
}

// Handler serves the gateway's HTTP API.
type Handler struct {
	lifecycle   *service.LifecycleController
	status      *service.StatusReporter
	issuer      *service.ExchangeKeyIssuer
	credentials *service.CredentialService
	metrics     *metric.Registry
	logger      *slog.Logger
	codeWait    time.Duration

	mux *http.ServeMux
}

// Config carries the handler's collaborators.
type Config struct {
	Lifecycle   *service.LifecycleController
	Status      *service.StatusReporter
	Issuer      *service.ExchangeKeyIssuer
	Credentials *service.CredentialService
	Metrics     *metric.Registry
	Logger      *slog.Logger

	// CodeWaitTimeout bounds how long GET /auth waits for a handshake code.
	CodeWaitTimeout time.Duration
}

// New builds the handler and registers its routes.
func New(cfg Config) *Handler {
	codeWait := cfg.CodeWaitTimeout
	if codeWait <= 0 {
		codeWait = 60 * time.Second
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.NewNop()
	}
	h := &Handler{
		lifecycle:   cfg.Lifecycle,
		status:      cfg.Status,
		issuer:      cfg.Issuer,
		credentials: cfg.Credentials,
		metrics:     metrics,
		logger:      cfg.Logger,
		codeWait:    codeWait,
		mux:         http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /auth", h.handleAuth)
	h.mux.HandleFunc("POST /get-token", h.handleGetToken)

	h.mux.HandleFunc("POST /send-message", h.handleSendMessage)
	h.mux.HandleFunc("GET /status", h.handleStatus)
	h.mux.HandleFunc("GET /my-sessions", h.handleMySessions)
	h.mux.HandleFunc("POST /logout", h.handleLogout)

	h.mux.HandleFunc("GET /contacts", h.handleContacts)
	h.mux.HandleFunc("GET /chats", h.handleChats)
	h.mux.HandleFunc("GET /chats/{id}", h.handleChatByID)
	h.mux.HandleFunc("GET /chats/{id}/messages", h.handleChatHistory)
	h.mux.HandleFunc("GET /profile", h.handleProfile)
	h.mux.HandleFunc("GET /profile-picture", h.handleProfilePicture)
	h.mux.HandleFunc("POST /check-number", h.handleCheckNumber)
	h.mux.HandleFunc("POST /block", h.handleBlock)
	h.mux.HandleFunc("POST /unblock", h.handleUnblock)
	h.mux.HandleFunc("POST /group", h.handleCreateGroup)
	h.mux.HandleFunc("POST /group/{id}/participants/add", h.handleAddParticipants)
	h.mux.HandleFunc("POST /group/{id}/participants/remove", h.handleRemoveParticipants)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// claims returns the request's verified claims, writing a 401 if absent.
// BearerAuth populates them on protected routes; a miss here means the
// route was mounted without the middleware.
func (h *Handler) claims(w http.ResponseWriter, r *http.Request) (*domain.BearerClaims, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, domain.ErrCredentialMissing)
		return nil, false
	}
	return claims, true
}

// decode parses a JSON request body into dst.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("malformed request body"))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	code := domain.GetErrorCode(err)
	message := err.Error()
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		message = derr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// handleServiceError maps a service error onto an HTTP status via its code.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	h.writeError(w, errorCodeToHTTPStatus(domain.GetErrorCode(err)), err)
}

func errorCodeToHTTPStatus(code string) int {
	if len(code) < 4 {
		return http.StatusInternalServerError
	}
	switch code[len(code)-4:] {
	case "4001", "4002":
		return http.StatusBadRequest
	case "4010", "4011", "4012":
		return http.StatusUnauthorized
	case "4030", "4031":
		return http.StatusForbidden
	case "4040":
		return http.StatusNotFound
	case "4080":
		return http.StatusRequestTimeout
	case "4090", "4091":
		return http.StatusConflict
	case "4290":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
