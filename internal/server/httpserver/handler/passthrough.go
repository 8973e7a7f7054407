package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/yndnr/chatmesh-go/internal/core/capability"
	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

const defaultHistoryLimit = 50

// connectedCapability resolves the caller's capability, requiring a
// connected session.
func (h *Handler) connectedCapability(r *http.Request, clientID string) (capability.Capability, error) {
	report := h.status.Status(r.Context(), clientID)
	if !report.Exists {
		return nil, domain.ErrSessionNotFound
	}
	if !report.Connected {
		return nil, domain.ErrSessionNotConnected
	}
	return h.lifecycle.Capability(clientID)
}

func (h *Handler) handleContacts(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	contacts, err := conn.Contacts(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contactsResponse{Contacts: contacts})
}

func (h *Handler) handleChats(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	chats, err := conn.Chats(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chatsResponse{Chats: chats})
}

func (h *Handler) handleChatByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	chat, err := conn.ChatByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest,
				domain.ErrSessionValidation.WithDetails("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	chatID := r.PathValue("id")
	messages, err := conn.ChatHistory(r.Context(), chatID, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chatHistoryResponse{ChatID: chatID, Messages: messages})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	profile, err := conn.Profile(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleProfilePicture(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	contact := r.URL.Query().Get("contact")
	if contact == "" {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("contact query parameter is required"))
		return
	}

	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	url, err := conn.ProfilePicture(r.Context(), contact)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profilePictureResponse{Contact: contact, URL: url})
}

func (h *Handler) handleCheckNumber(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req checkNumberRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Number == "" {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("number is required"))
		return
	}

	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	registered, err := conn.IsRegisteredUser(r.Context(), req.Number)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, checkNumberResponse{
		Number:       req.Number,
		IsRegistered: registered,
	})
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	h.handleContactAction(w, r, "blocked", capability.Capability.Block)
}

func (h *Handler) handleUnblock(w http.ResponseWriter, r *http.Request) {
	h.handleContactAction(w, r, "unblocked", capability.Capability.Unblock)
}

func (h *Handler) handleContactAction(
	w http.ResponseWriter,
	r *http.Request,
	verb string,
	action func(capability.Capability, context.Context, string) error,
) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req contactActionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Contact == "" {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("contact is required"))
		return
	}

	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if err := action(conn, r.Context(), req.Contact); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contactActionResponse{
		Status:  verb,
		Contact: req.Contact,
	})
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" || len(req.Participants) == 0 {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("name and participants are required"))
		return
	}

	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	result, err := conn.CreateGroup(r.Context(), req.Name, req.Participants)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddParticipants(w http.ResponseWriter, r *http.Request) {
	h.handleParticipants(w, r, "added", capability.Capability.AddParticipants)
}

func (h *Handler) handleRemoveParticipants(w http.ResponseWriter, r *http.Request) {
	h.handleParticipants(w, r, "removed", capability.Capability.RemoveParticipants)
}

func (h *Handler) handleParticipants(
	w http.ResponseWriter,
	r *http.Request,
	verb string,
	action func(capability.Capability, context.Context, string, []string) error,
) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req participantsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Participants) == 0 {
		h.writeError(w, http.StatusBadRequest,
			domain.ErrSessionValidation.WithDetails("participants is required"))
		return
	}

	conn, err := h.connectedCapability(r, claims.ClientID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	groupID := r.PathValue("id")
	if err := action(conn, r.Context(), groupID, req.Participants); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, participantsResponse{
		Status:       verb,
		GroupID:      groupID,
		Participants: req.Participants,
	})
}
