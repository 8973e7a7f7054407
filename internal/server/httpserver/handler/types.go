package handler

import "github.com/yndnr/chatmesh-go/internal/core/capability"

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// authCodeResponse is the first-call answer of GET /auth: a fresh
// handshake code plus the single-use key to exchange for a credential.
type authCodeResponse struct {
	Status        string `json:"status"`
	ClientID      string `json:"id_cliente"`
	QRCode        string `json:"qr_code"`
	SessionKey    string `json:"session_key"`
	KeyExpiresIn  int64  `json:"key_expires_in"`
	Authenticated bool   `json:"authenticated"`
}

// authConnectedResponse answers GET /auth for an already connected client.
type authConnectedResponse struct {
	Authenticated bool   `json:"authenticated"`
	SessionState  string `json:"session_state"`
}

type getTokenRequest struct {
	ClientID   string `json:"id_cliente"`
	SessionKey string `json:"session_key"`
}

type getTokenResponse struct {
	Status    string `json:"status"`
	Token     string `json:"token,omitempty"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

type sendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Timestamp int64  `json:"timestamp"`
}

type statusResponse struct {
	ClientID     string              `json:"id_cliente"`
	Exists       bool                `json:"exists"`
	SessionState string              `json:"session_state"`
	Connected    bool                `json:"connected"`
	Info         *capability.Profile `json:"info,omitempty"`
}

type mySessionsResponse struct {
	Sessions []statusResponse `json:"sessions"`
}

type logoutResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type contactsResponse struct {
	Contacts []capability.Contact `json:"contacts"`
}

type chatsResponse struct {
	Chats []capability.Chat `json:"chats"`
}

type chatHistoryResponse struct {
	ChatID   string               `json:"chat_id"`
	Messages []capability.Message `json:"messages"`
}

type profilePictureResponse struct {
	Contact string `json:"contact"`
	URL     string `json:"url"`
}

type checkNumberRequest struct {
	Number string `json:"number"`
}

type checkNumberResponse struct {
	Number       string `json:"number"`
	IsRegistered bool   `json:"is_registered"`
}

type contactActionRequest struct {
	Contact string `json:"contact"`
}

type contactActionResponse struct {
	Status  string `json:"status"`
	Contact string `json:"contact"`
}

type createGroupRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

type participantsRequest struct {
	Participants []string `json:"participants"`
}

type participantsResponse struct {
	Status       string   `json:"status"`
	GroupID      string   `json:"group_id"`
	Participants []string `json:"participants"`
}
