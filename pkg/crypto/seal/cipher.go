package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm identifies a sealing algorithm.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required key length in bytes for both algorithms.
const KeySize = chacha20poly1305.KeySize

// Sealing errors.
var (
	ErrInvalidKeySize   = errors.New("seal: key must be exactly 32 bytes")
	ErrUnknownAlgorithm = errors.New("seal: unknown algorithm")
	ErrBoxTooShort      = errors.New("seal: sealed box too short")
	ErrOpenFailed       = errors.New("seal: open failed, wrong key or corrupted box")
)

// Cipher seals and opens byte slices with authenticated encryption.
// Implementations are safe for concurrent use.
type Cipher interface {
	// Algorithm returns the algorithm behind this cipher.
	Algorithm() Algorithm

	// Seal encrypts plaintext, binding it to the additional data.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open decrypts a sealed box produced with the same key and
	// additional data.
	Open(box, additionalData []byte) ([]byte, error)
}

// New creates a cipher for the key, choosing the algorithm by hardware.
// amd64 and arm64 accelerate AES; everything else gets ChaCha20.
func New(key []byte) (Cipher, error) {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return NewWithAlgorithm(key, AlgorithmAESGCM)
	default:
		return NewWithAlgorithm(key, AlgorithmChaCha20)
	}
}

// NewWithAlgorithm creates a cipher with an explicit algorithm choice.
func NewWithAlgorithm(key []byte, algorithm Algorithm) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	switch algorithm {
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &aeadCipher{algorithm: AlgorithmAESGCM, aead: aead}, nil

	case AlgorithmChaCha20:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		return &aeadCipher{algorithm: AlgorithmChaCha20, aead: aead}, nil

	default:
		return nil, ErrUnknownAlgorithm
	}
}

type aeadCipher struct {
	algorithm Algorithm
	aead      cipher.AEAD
}

func (c *aeadCipher) Algorithm() Algorithm {
	return c.algorithm
}

// Seal prepends a fresh random nonce to the ciphertext.
func (c *aeadCipher) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Open(box, additionalData []byte) ([]byte, error) {
	if len(box) < c.aead.NonceSize() {
		return nil, ErrBoxTooShort
	}
	nonce, ciphertext := box[:c.aead.NonceSize()], box[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}
