// Package main provides the entry point for chatmesh-cli.
//
// The CLI tool provides command-line access to a ChatMesh gateway for:
//
//   - Starting a session handshake and printing the pairing code
//   - Exchanging a session key for a bearer credential
//   - Session status, listing and logout
//   - Sending messages and browsing contacts and chats
//
// Usage:
//
//	chatmesh-cli [command] [flags]
//	chatmesh-cli auth my-client
//	chatmesh-cli --token $CHATMESH_TOKEN status
package main
