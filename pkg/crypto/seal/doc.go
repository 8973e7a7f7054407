// Package seal provides authenticated encryption for data at rest.
//
// It wraps AES-256-GCM and ChaCha20-Poly1305 behind a single Cipher
// interface and picks between them based on hardware: AES-GCM where the
// CPU accelerates it, ChaCha20-Poly1305 elsewhere. Nonces are generated
// per sealing and carried inside the box, so callers only handle opaque
// byte slices.
//
// Keys can be supplied directly (32 bytes) or derived from a passphrase
// with Argon2id; the derivation salt must be persisted alongside the
// sealed data and fed back in to reproduce the key.
package seal
