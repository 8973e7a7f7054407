package handler

import (
	"net/http"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.To == "" || req.Message == "" {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("to and message are required"))
		return
	}

	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	result, err := conn.SendMessage(r.Context(), req.To, req.Message)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, sendMessageResponse{
		Status:    "ok",
		MessageID: result.MessageID,
		Timestamp: result.Timestamp,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	report := h.status.Status(r.Context(), claims.ClientID)
	h.writeJSON(w, http.StatusOK, statusResponse{
		ClientID:     claims.ClientID,
		Exists:       report.Exists,
		SessionState: string(report.State),
		Connected:    report.Connected,
		Info:         report.Info,
	})
}

// handleMySessions lists the sessions visible to the credential. A
// credential authorizes exactly one client id, so the list holds at
// most that client's session.
func (h *Handler) handleMySessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	sessions := []statusResponse{}
	report := h.status.Status(r.Context(), claims.ClientID)
	if report.Exists {
		sessions = append(sessions, statusResponse{
			ClientID:     claims.ClientID,
			Exists:       true,
			SessionState: string(report.State),
			Connected:    report.Connected,
			Info:         report.Info,
		})
	}

	h.writeJSON(w, http.StatusOK, mySessionsResponse{Sessions: sessions})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.Logout(r.Context(), claims.ClientID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, logoutResponse{
		Status:  "ok",
		Message: "session closed",
	})
}
