// Package logger provides structured logging for ChatMesh.
//
// It configures log/slog with JSON or text output, runtime-adjustable
// level, and automatic redaction of sensitive material: exchange keys
// (cmxk_), bearer credentials (cmbt_), and attributes whose key names
// suggest secrets. Context helpers propagate the request-scoped logger
// and request id through call chains.
package logger
