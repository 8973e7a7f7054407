// Package service provides the domain services for ChatMesh.
//
// SessionRegistry is the single source of truth for session existence.
package service

import (
	"github.com/yndnr/chatmesh-go/internal/core/domain"
	"github.com/yndnr/chatmesh-go/pkg/cmap"
)

// SessionRegistry owns the mapping from client identifier to session.
//
// It is pure storage with existence semantics: no validation, no
// lifecycle logic. Mutations are immediately visible to all readers.
type SessionRegistry struct {
	sessions *cmap.Map[string, *domain.ClientSession]
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: cmap.New[string, *domain.ClientSession](),
	}
}

// Get retrieves the session for a client id.
func (r *SessionRegistry) Get(clientID string) (*domain.ClientSession, bool) {
	return r.sessions.Get(clientID)
}

// Put registers a session, replacing any prior entry.
func (r *SessionRegistry) Put(clientID string, session *domain.ClientSession) {
	r.sessions.Set(clientID, session)
}

// PutIfAbsent registers a session only if none exists for the client id.
// Returns the stored session and whether an entry already existed.
func (r *SessionRegistry) PutIfAbsent(clientID string, session *domain.ClientSession) (*domain.ClientSession, bool) {
	return r.sessions.GetOrSet(clientID, session)
}

// Remove deregisters and returns the session for a client id.
func (r *SessionRegistry) Remove(clientID string) (*domain.ClientSession, bool) {
	return r.sessions.Pop(clientID)
}

// List returns all registered sessions.
func (r *SessionRegistry) List() []*domain.ClientSession {
	return r.sessions.Values()
}

// CountByState returns the number of sessions grouped by lifecycle
// state. Used by the metrics session collector at scrape time.
func (r *SessionRegistry) CountByState() map[string]int {
	counts := make(map[string]int)
	for _, session := range r.sessions.Values() {
		counts[string(session.State())]++
	}
	return counts
}

// Len returns the number of registered sessions.
func (r *SessionRegistry) Len() int {
	return r.sessions.Count()
}
