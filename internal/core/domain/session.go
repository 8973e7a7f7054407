// Package domain defines the core domain models for ChatMesh.
package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session constraints.
const (
	MaxClientIDLength = 128

	// AttemptIDPrefix is the prefix for connection attempt IDs.
	AttemptIDPrefix = "cmat-"
)

// ClientSession represents one tenant's connection to the messaging
// automation layer. There is never more than one live ClientSession per
// client identifier.
//
// State fields are guarded by an internal mutex: capability event handlers
// mutate them while HTTP readers observe them concurrently.
type ClientSession struct {
	// ClientID is the caller-supplied identifier, immutable for the
	// session's lifetime.
	ClientID string `json:"client_id"`

	// AttemptID identifies the current connection attempt.
	// Format: cmat-{ulid_lowercase}.
	AttemptID string `json:"attempt_id"`

	// CreatedAt is the session creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at"`

	mu                 sync.RWMutex
	state              State
	fullyAuthenticated bool
	lastEventAt        int64
}

// NewClientSession creates a session in the given entry state
// (INITIALIZING for fresh authentication, RESTORING for startup recovery).
func NewClientSession(clientID string, entry State) (*ClientSession, error) {
	id, err := GenerateAttemptID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	return &ClientSession{
		ClientID:    clientID,
		AttemptID:   id,
		CreatedAt:   now,
		state:       entry,
		lastEventAt: now,
	}, nil
}

// GenerateAttemptID generates a new attempt ID using ULID.
// Format: cmat-{ulid_lowercase}, 31 characters total.
func GenerateAttemptID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return AttemptIDPrefix + strings.ToLower(id.String()), nil
}

// State returns the current lifecycle state.
func (s *ClientSession) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// FullyAuthenticated reports whether the capability reached its
// ready-to-send condition.
func (s *ClientSession) FullyAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullyAuthenticated
}

// Connected reports whether the session is usable for messaging.
func (s *ClientSession) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateConnected && s.fullyAuthenticated
}

// LastEventAt returns the timestamp of the last applied event (Unix ms).
func (s *ClientSession) LastEventAt() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEventAt
}

// Apply applies a capability event to the session state machine.
//
// It returns the resulting state and whether the transition was legal.
// Illegal transitions leave the session untouched. The authenticated flag
// follows the guarantees of §state machine: set on CONNECTED, cleared on
// AUTH_FAILURE and DISCONNECTED.
func (s *ClientSession) Apply(event Event) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := Transition(s.state, event)
	if !ok {
		return s.state, false
	}

	s.state = next
	s.lastEventAt = time.Now().UnixMilli()

	switch next {
	case StateConnected:
		s.fullyAuthenticated = true
	case StateAuthFailure, StateDisconnected:
		s.fullyAuthenticated = false
	}

	return next, true
}

// Fail forces the session into ERROR, clearing the authenticated flag.
// Used when the capability itself failed rather than emitting an event.
func (s *ClientSession) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateError
	s.fullyAuthenticated = false
	s.lastEventAt = time.Now().UnixMilli()
}

// ValidateClientID validates a caller-supplied client identifier.
//
// Client IDs name on-disk credential directories, so path separators and
// relative path elements are rejected outright.
func ValidateClientID(id string) error {
	if id == "" {
		return ErrSessionValidation.WithDetails("id_cliente is required")
	}
	if len(id) > MaxClientIDLength {
		return ErrSessionValidation.WithDetails("id_cliente exceeds 128 characters")
	}
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return ErrSessionValidation.WithDetails("id_cliente contains illegal characters")
	}
	return nil
}
