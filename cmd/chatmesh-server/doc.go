// Package main provides the entry point for chatmesh-server.
//
// The server is the ChatMesh gateway process that provides:
//
//   - HTTP/HTTPS API for the session handshake and credential exchange
//   - Bearer-protected messaging and directory endpoints
//   - Encrypted on-disk identity store for session restoration
//   - Prometheus metrics and health endpoints
//
// Usage:
//
//	chatmesh-server [flags]
//	chatmesh-server --config /path/to/config.yaml
//
// The server loads configuration, restores remembered sessions, and
// serves until interrupted.
package main
