package handler

import (
	"net/http"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

// handleGetToken exchanges a single-use session key for a bearer
// credential. The key is consumed only on successful mint: a pending
// session leaves it valid so the client can retry after connecting.
func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	var req getTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ClientID == "" || req.SessionKey == "" {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("id_cliente and session_key are required"))
		return
	}

	if !h.issuer.IsValid(req.ClientID, req.SessionKey) {
		h.writeError(w, http.StatusUnauthorized, domain.ErrExchangeKeyInvalid)
		return
	}

	report := h.status.Status(r.Context(), req.ClientID)
	if !report.Connected {
		h.writeJSON(w, http.StatusOK, getTokenResponse{Status: "pending"})
		return
	}

	if !h.issuer.Consume(req.ClientID, req.SessionKey) {
		// Lost the race to a concurrent exchange.
		h.writeError(w, http.StatusUnauthorized, domain.ErrExchangeKeyInvalid)
		return
	}
	h.metrics.ExchangeKeysConsumed.Inc()

	credential, _, err := h.credentials.Mint(req.ClientID)
	if err != nil {
		h.logger.Error("credential mint failed",
			"id_cliente", req.ClientID, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalServer)
		return
	}
	h.metrics.CredentialsMinted.Inc()

	h.writeJSON(w, http.StatusOK, getTokenResponse{
		Status:    "ok",
		Token:     credential,
		ExpiresIn: "24 horas",
	})
}
