// Package service provides the domain services for ChatMesh.
//
// CredentialService mints and verifies the signed bearer credentials
// that authorize protected operations. Credentials are stateless: the
// core stores nothing and recomputes validity from the claims and the
// HMAC on every request.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

// MinCredentialSecretLength is the minimum HMAC secret length in bytes.
const MinCredentialSecretLength = 32

// CredentialService signs bearer credentials with HMAC-SHA256.
//
// Format: cmbt_{base64url(claims_json)}.{base64url(hmac_sha256)}.
type CredentialService struct {
	secret []byte
	ttl    time.Duration
}

// NewCredentialService creates a credential service with the given secret.
func NewCredentialService(secret []byte) (*CredentialService, error) {
	if len(secret) < MinCredentialSecretLength {
		return nil, domain.ErrInvalidArgument.WithDetails("credential secret must be at least 32 bytes")
	}
	return &CredentialService{
		secret: secret,
		ttl:    domain.BearerTTL,
	}, nil
}

// Mint issues a credential for a client id with the fixed 24 hour window.
func (s *CredentialService) Mint(clientID string) (string, *domain.BearerClaims, error) {
	claims := &domain.BearerClaims{
		ClientID: clientID,
		IssuedAt: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", nil, domain.ErrInternalServer.WithCause(err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	sig := s.sign(encoded)
	return domain.BearerPrefix + encoded + "." + sig, claims, nil
}

// Verify checks format, signature and expiry, returning the claims.
//
// Callers still must match claims.ClientID against the session an
// operation resolves to; a valid credential never authorizes another
// client's session.
func (s *CredentialService) Verify(credential string) (*domain.BearerClaims, error) {
	if !strings.HasPrefix(credential, domain.BearerPrefix) {
		return nil, domain.ErrCredentialInvalid.WithDetails("missing cmbt_ prefix")
	}

	body := strings.TrimPrefix(credential, domain.BearerPrefix)
	encoded, sig, found := strings.Cut(body, ".")
	if !found || encoded == "" || sig == "" {
		return nil, domain.ErrCredentialInvalid.WithDetails("malformed credential")
	}

	expected := s.sign(encoded)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, domain.ErrCredentialInvalid.WithDetails("signature mismatch")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrCredentialInvalid.WithCause(err)
	}

	var claims domain.BearerClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, domain.ErrCredentialInvalid.WithCause(err)
	}
	if claims.ClientID == "" {
		return nil, domain.ErrCredentialInvalid.WithDetails("claims missing client id")
	}

	if claims.IsExpired() {
		return nil, domain.ErrCredentialExpired
	}

	return &claims, nil
}

// sign computes the base64url HMAC-SHA256 of the encoded payload.
func (s *CredentialService) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
