// Package capability defines the connection capability boundary.
//
// A Capability is the opaque per-client messaging connection the session
// core manages but does not implement. The core consumes its lifecycle
// events through an EventSink and drives it through the methods below;
// everything behind this interface (the actual messaging protocol, the
// on-disk credential persistence, code rendering) is an external concern.
package capability

import "context"

// Capability is one client's messaging connection.
//
// All methods may fail and must be assumed asynchronous under the hood.
// Initialize returns once startup has begun; progress and readiness are
// reported through the EventSink the capability was created with.
type Capability interface {
	// Initialize begins connection startup. It does not block until ready.
	Initialize(ctx context.Context) error

	// GetState returns the connection's own view of its state. Used only
	// as a cheap liveness fallback when cached state is ambiguous.
	GetState(ctx context.Context) (string, error)

	// SendMessage delivers content to an address.
	SendMessage(ctx context.Context, to, content string) (*SendResult, error)

	// Logout gracefully ends the authenticated connection.
	Logout(ctx context.Context) error

	// Destroy tears the connection down unconditionally.
	Destroy(ctx context.Context) error

	// Read operations.
	Contacts(ctx context.Context) ([]Contact, error)
	Chats(ctx context.Context) ([]Chat, error)
	ChatByID(ctx context.Context, chatID string) (*Chat, error)
	ChatHistory(ctx context.Context, chatID string, limit int) ([]Message, error)
	Profile(ctx context.Context) (*Profile, error)
	ProfilePicture(ctx context.Context, contact string) (string, error)
	IsRegisteredUser(ctx context.Context, number string) (bool, error)

	// Directory operations.
	Block(ctx context.Context, contact string) error
	Unblock(ctx context.Context, contact string) error
	CreateGroup(ctx context.Context, name string, participants []string) (*GroupResult, error)
	AddParticipants(ctx context.Context, groupID string, participants []string) error
	RemoveParticipants(ctx context.Context, groupID string, participants []string) error
}

// EventSink receives lifecycle events from a capability.
//
// For a given client, the capability must deliver events in emission order;
// each sink method synchronously updates session state before returning.
type EventSink interface {
	LoadingProgress(percent int, message string)
	CodeProduced(raw string)
	Authenticated()
	Ready()
	AuthFailure(message string)
	Disconnected(reason string)
	InboundMessage(msg *Message)
}

// Factory allocates a capability for a client, wired to the given sink.
// The returned capability is exclusively owned by that client's session.
type Factory func(clientID string, sink EventSink) (Capability, error)

// SendResult is the outcome of a message send.
type SendResult struct {
	MessageID string `json:"message_id"`
	Timestamp int64  `json:"timestamp"`
}

// Contact is a directory entry.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	IsBlocked bool   `json:"is_blocked"`
}

// Chat is a conversation summary.
type Chat struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsGroup       bool   `json:"is_group"`
	UnreadCount   int    `json:"unread_count"`
	LastMessageAt int64  `json:"last_message_at"`
}

// Message is a single chat message.
type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"from_me"`
}

// Profile is the connected account's own metadata.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   string `json:"number"`
	Platform string `json:"platform"`
}

// GroupResult is the outcome of a group creation.
type GroupResult struct {
	GroupID      string   `json:"group_id"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}
