// Package token provides random value generation and hashing utilities.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultLength is the default value length in bytes.
const DefaultLength = 32

// Generate generates a cryptographically secure random value.
//
// The returned value is Base64 RawURL encoded for safe URL transmission.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a value with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateWithPrefix generates a random value and prepends the given prefix.
//
// Prefixed values (cmxk_, cmbt_) let the log redactor recognize secrets
// without knowing where they came from.
func GenerateWithPrefix(prefix string, length int) (string, error) {
	v, err := GenerateWithLength(length)
	if err != nil {
		return "", err
	}
	return prefix + v, nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
