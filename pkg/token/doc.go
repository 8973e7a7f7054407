// Package token provides random value generation and hashing utilities.
//
// This package implements cryptographically secure value generation for
// the ChatMesh exchange keys and bearer credentials.
//
// Value Format:
//
//   - Exchange key prefix: cmxk_ (5 characters)
//   - Bearer credential prefix: cmbt_ (5 characters)
//   - Body: Base64 RawURL encoded random bytes
//
// Security:
//
//   - Uses crypto/rand for CSPRNG
//   - SHA-256 hashing with constant-time comparison
package token
