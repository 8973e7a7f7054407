// Package domain defines the core domain models for ChatMesh.
package domain

import "time"

// Exchange key constraints.
const (
	// ExchangeKeyPrefix is the prefix for exchange key values.
	ExchangeKeyPrefix = "cmxk_"

	// ExchangeKeyTTL is the fixed validity window of an exchange key.
	ExchangeKeyTTL = 10 * time.Minute
)

// ExchangeKey is a short-lived, single-use token exchanged for a bearer
// credential. At most one valid key exists per client identifier; issuing
// a new one overwrites the prior key.
type ExchangeKey struct {
	// ClientID is the client the key was issued for.
	ClientID string `json:"client_id"`

	// Value is the unguessable key value. Format: cmxk_{base64_rawurl}.
	Value string `json:"value"`

	// IssuedAt is the issuance timestamp (Unix milliseconds).
	IssuedAt int64 `json:"issued_at"`

	// ExpiresAt is the expiry timestamp, fixed at issuance + 10 minutes.
	ExpiresAt int64 `json:"expires_at"`
}

// IsExpired reports whether the key is past its validity window.
func (k *ExchangeKey) IsExpired() bool {
	return time.Now().UnixMilli() > k.ExpiresAt
}

// TTLRemaining returns the remaining validity as a duration, 0 if expired.
func (k *ExchangeKey) TTLRemaining() time.Duration {
	remaining := k.ExpiresAt - time.Now().UnixMilli()
	if remaining < 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}
