// Package domain defines the core domain models for ChatMesh.
package domain

import "time"

// Bearer credential constraints.
const (
	// BearerPrefix is the prefix for bearer credential values.
	BearerPrefix = "cmbt_"

	// BearerTTL is the fixed validity window of a bearer credential.
	BearerTTL = 24 * time.Hour
)

// BearerClaims are the claims bound into a signed bearer credential.
// The core never stores credentials; validity is recomputed from the
// claims and the signature on every request.
type BearerClaims struct {
	// ClientID is the client the credential authorizes. A credential for
	// client A must never authorize operations on client B's session.
	ClientID string `json:"client_id"`

	// IssuedAt is the issuance timestamp (Unix milliseconds).
	IssuedAt int64 `json:"issued_at"`
}

// ExpiresAt returns the expiry timestamp (Unix milliseconds).
func (c *BearerClaims) ExpiresAt() int64 {
	return c.IssuedAt + BearerTTL.Milliseconds()
}

// IsExpired reports whether the credential is past its validity window.
func (c *BearerClaims) IsExpired() bool {
	return time.Now().UnixMilli() > c.ExpiresAt()
}
