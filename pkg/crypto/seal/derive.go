package seal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Derivation constraints.
const (
	// MinPassphraseLength is the shortest accepted passphrase.
	MinPassphraseLength = 8

	// SaltLength is the salt length for passphrase derivation.
	SaltLength = 16
)

// Argon2id parameters.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// ErrPassphraseTooWeak rejects passphrases below MinPassphraseLength.
var ErrPassphraseTooWeak = errors.New("seal: passphrase too weak (minimum 8 characters)")

// GenerateSalt returns a fresh random salt for passphrase derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("seal: generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a KeySize key from a passphrase with Argon2id. The
// same passphrase and salt always produce the same key; persist the salt
// next to the sealed data.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("seal: salt must be %d bytes", SaltLength)
	}
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, KeySize), nil
}

// DeriveSubkey derives a purpose-bound subkey from a master key with
// HKDF-SHA256, so one configured secret can serve multiple concerns
// without key reuse.
func DeriveSubkey(masterKey []byte, purpose string) ([]byte, error) {
	if len(masterKey) < KeySize {
		return nil, ErrInvalidKeySize
	}
	subkey := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(purpose)), subkey); err != nil {
		return nil, fmt.Errorf("seal: derive subkey: %w", err)
	}
	return subkey, nil
}

// Zero wipes key material in place.
func Zero(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
