// Package token provides random value generation and hashing utilities.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash computes the SHA-256 hash of a value.
//
// The returned hash is hex encoded for storage.
func Hash(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}

// Verify verifies a value against an expected hash.
//
// Uses constant-time comparison to prevent timing attacks.
func Verify(value, expectedHash string) bool {
	actualHash := Hash(value)
	return subtle.ConstantTimeCompare([]byte(actualHash), []byte(expectedHash)) == 1
}

// Equal compares two values in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
