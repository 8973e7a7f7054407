// Package service provides the domain services for ChatMesh.
//
// ExchangeKeyIssuer issues, validates, consumes and expires the
// short-lived single-use keys exchanged for bearer credentials.
package service

import (
	"sync"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
	"github.com/yndnr/chatmesh-go/pkg/token"
)

// ExchangeKeyIssuer tracks at most one valid exchange key per client id.
//
// A single mutex guards the table: validate-and-consume must be atomic so
// two concurrent consumers of the same key cannot both succeed.
type ExchangeKeyIssuer struct {
	mu   sync.Mutex
	keys map[string]*domain.ExchangeKey
	ttl  time.Duration
}

// NewExchangeKeyIssuer creates an issuer with the standard 10 minute TTL.
func NewExchangeKeyIssuer() *ExchangeKeyIssuer {
	return &ExchangeKeyIssuer{
		keys: make(map[string]*domain.ExchangeKey),
		ttl:  domain.ExchangeKeyTTL,
	}
}

// Issue generates a fresh key for a client, overwriting any prior key.
func (i *ExchangeKeyIssuer) Issue(clientID string) (*domain.ExchangeKey, error) {
	value, err := token.GenerateWithPrefix(domain.ExchangeKeyPrefix, token.DefaultLength)
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}

	now := time.Now().UnixMilli()
	key := &domain.ExchangeKey{
		ClientID:  clientID,
		Value:     value,
		IssuedAt:  now,
		ExpiresAt: now + i.ttl.Milliseconds(),
	}

	i.mu.Lock()
	i.keys[clientID] = key
	i.mu.Unlock()

	return key, nil
}

// Current returns the live key for a client, if any.
// Expired keys are purged as a side effect.
func (i *ExchangeKeyIssuer) Current(clientID string) (*domain.ExchangeKey, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	key, ok := i.keys[clientID]
	if !ok {
		return nil, false
	}
	if key.IsExpired() {
		delete(i.keys, clientID)
		return nil, false
	}
	return key, true
}

// IsValid reports whether value is the recorded, unexpired key for the
// client id. Expired records are purged as a side effect of the check.
func (i *ExchangeKeyIssuer) IsValid(clientID, value string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.validLocked(clientID, value)
}

// Consume validates and, if valid, deletes the key (one-time use).
// Callers must not issue a credential on a false result.
func (i *ExchangeKeyIssuer) Consume(clientID, value string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.validLocked(clientID, value) {
		return false
	}
	delete(i.keys, clientID)
	return true
}

// Remove drops the key for a client unconditionally (session destruction).
func (i *ExchangeKeyIssuer) Remove(clientID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.keys, clientID)
}

// SweepExpired removes all records past expiry and returns the count.
func (i *ExchangeKeyIssuer) SweepExpired() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	for clientID, key := range i.keys {
		if key.IsExpired() {
			delete(i.keys, clientID)
			removed++
		}
	}
	return removed
}

// Len returns the number of recorded keys, expired or not.
func (i *ExchangeKeyIssuer) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.keys)
}

// validLocked checks existence, exact match and expiry with i.mu held.
func (i *ExchangeKeyIssuer) validLocked(clientID, value string) bool {
	key, ok := i.keys[clientID]
	if !ok {
		return false
	}
	if key.IsExpired() {
		delete(i.keys, clientID)
		return false
	}
	return token.Equal(key.Value, value)
}
