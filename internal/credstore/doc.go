// Package credstore persists client identities on disk.
//
// Each remembered client gets a directory under the store root holding a
// sealed identity record. Records are encrypted at rest with an AEAD
// cipher and bound to their client id as additional data, so a record
// copied between client directories fails to open. The store root also
// holds the derivation salt when the sealing key comes from a
// passphrase.
//
// The store is the durable half of session restoration: the session core
// asks it which clients to bring back after a restart and tells it when
// a client authenticates or logs out.
package credstore
