package handler

import (
	"errors"
	"net/http"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

// handleAuth starts (or reuses) a session for the requested client and
// long-polls for its handshake code.
func (h *Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("id_cliente")
	if clientID == "" {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("id_cliente query parameter is required"))
		return
	}

	outcome, err := h.lifecycle.Create(r.Context(), clientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if outcome.Existed && outcome.Session.Connected() {
		h.writeJSON(w, http.StatusOK, authConnectedResponse{
			Authenticated: true,
			SessionState:  string(outcome.Session.State()),
		})
		return
	}

	code, err := h.lifecycle.WaitForCode(r.Context(), clientID, h.codeWait)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyAuthenticated):
			h.writeJSON(w, http.StatusOK, authConnectedResponse{
				Authenticated: true,
				SessionState:  string(domain.StateConnected),
			})
		case errors.Is(err, domain.ErrHandshakeTimeout):
			h.writeError(w, http.StatusRequestTimeout, err)
		default:
			h.logger.Error("handshake wait failed",
				"id_cliente", clientID, "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalServer)
		}
		return
	}

	key, ok := h.issuer.Current(clientID)
	if !ok {
		// The attempt produced a code but its key is already gone; only a
		// concurrent destroy can do that.
		h.writeError(w, http.StatusNotFound, domain.ErrSessionNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, authCodeResponse{
		Status:        "ok",
		ClientID:      clientID,
		QRCode:        code,
		SessionKey:    key.Value,
		KeyExpiresIn:  int64(domain.ExchangeKeyTTL.Seconds()),
		Authenticated: false,
	})
}
