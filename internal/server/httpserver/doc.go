// Package httpserver provides the HTTP server for ChatMesh.
//
// It builds on net/http: a stdlib mux with method patterns routes into
// the handler package, wrapped in middleware for panic recovery,
// request ids, per-IP rate limiting, request metrics, and bearer
// credential authentication on the protected surface.
package httpserver
