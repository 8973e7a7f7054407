package seal

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	for _, algorithm := range []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20} {
		t.Run(string(algorithm), func(t *testing.T) {
			c, err := NewWithAlgorithm(testKey(), algorithm)
			if err != nil {
				t.Fatalf("NewWithAlgorithm() error = %v", err)
			}
			if c.Algorithm() != algorithm {
				t.Errorf("Algorithm() = %q, want %q", c.Algorithm(), algorithm)
			}

			plaintext := []byte("identity manifest payload")
			aad := []byte("alice")

			box, err := c.Seal(plaintext, aad)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if bytes.Contains(box, plaintext) {
				t.Error("sealed box contains the plaintext")
			}

			opened, err := c.Open(box, aad)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("Open() = %q, want %q", opened, plaintext)
			}
		})
	}
}

func TestSealNoncesDiffer(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first, err := c.Seal([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	second, err := c.Seal([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two sealings of the same plaintext produced identical boxes")
	}
}

func TestOpenRejectsWrongAdditionalData(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	box, err := c.Seal([]byte("payload"), []byte("alice"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := c.Open(box, []byte("mallory")); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open() with wrong aad error = %v, want ErrOpenFailed", err)
	}
}

func TestOpenRejectsTamperedBox(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	box, err := c.Seal([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	box[len(box)-1] ^= 0xff

	if _, err := c.Open(box, nil); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open() of tampered box error = %v, want ErrOpenFailed", err)
	}
	if _, err := c.Open(box[:4], nil); !errors.Is(err, ErrBoxTooShort) {
		t.Fatalf("Open() of truncated box error = %v, want ErrBoxTooShort", err)
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	if _, err := New(make([]byte, 16)); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("New(short key) error = %v, want ErrInvalidKeySize", err)
	}
	if _, err := NewWithAlgorithm(testKey(), "rot13"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("NewWithAlgorithm(rot13) error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}

	first, err := DeriveKey([]byte("correct horse battery"), salt)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	second, err := DeriveKey([]byte("correct horse battery"), salt)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same passphrase and salt derived different keys")
	}
	if len(first) != KeySize {
		t.Errorf("derived key length = %d, want %d", len(first), KeySize)
	}

	otherSalt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	third, err := DeriveKey([]byte("correct horse battery"), otherSalt)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if bytes.Equal(first, third) {
		t.Error("different salts derived the same key")
	}
}

func TestDeriveKeyRejectsWeakPassphrase(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	if _, err := DeriveKey([]byte("short"), salt); !errors.Is(err, ErrPassphraseTooWeak) {
		t.Fatalf("DeriveKey(weak) error = %v, want ErrPassphraseTooWeak", err)
	}
}

func TestDeriveSubkeyPurposeBinding(t *testing.T) {
	master := testKey()

	identity, err := DeriveSubkey(master, "identity-store")
	if err != nil {
		t.Fatalf("DeriveSubkey() error = %v", err)
	}
	bearer, err := DeriveSubkey(master, "bearer-signing")
	if err != nil {
		t.Fatalf("DeriveSubkey() error = %v", err)
	}
	if bytes.Equal(identity, bearer) {
		t.Error("different purposes derived the same subkey")
	}

	again, err := DeriveSubkey(master, "identity-store")
	if err != nil {
		t.Fatalf("DeriveSubkey() error = %v", err)
	}
	if !bytes.Equal(identity, again) {
		t.Error("same purpose derived different subkeys")
	}
}
