// Package domain defines the core domain models for ChatMesh.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "CM-SESS-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates no session is registered for the client id.
	ErrSessionNotFound = NewDomainError("CM-SESS-4040", "session not found")

	// ErrSessionNotAuthenticated indicates the session has not completed the handshake.
	ErrSessionNotAuthenticated = NewDomainError("CM-SESS-4010", "session not authenticated")

	// ErrSessionNotConnected indicates the session is not ready for messaging.
	ErrSessionNotConnected = NewDomainError("CM-SESS-4030", "session not connected")

	// ErrSessionValidation indicates a malformed client identifier or session input.
	ErrSessionValidation = NewDomainError("CM-SESS-4001", "session validation failed")
)

// ============================================================================
// Handshake Errors (HSHK)
// ============================================================================

var (
	// ErrHandshakeTimeout indicates the handshake artifact was not produced in time.
	ErrHandshakeTimeout = NewDomainError("CM-HSHK-4080", "handshake timed out waiting for code")

	// ErrAlreadyAuthenticated indicates a handshake wait on an already connected session.
	ErrAlreadyAuthenticated = NewDomainError("CM-HSHK-4090", "session already authenticated")

	// ErrHandshakeSuperseded indicates the awaited handshake attempt was replaced by a retry.
	ErrHandshakeSuperseded = NewDomainError("CM-HSHK-4091", "handshake superseded by a new attempt")
)

// ============================================================================
// Exchange Key Errors (XKEY)
// ============================================================================

var (
	// ErrExchangeKeyInvalid indicates the exchange key is unknown, mismatched or expired.
	ErrExchangeKeyInvalid = NewDomainError("CM-XKEY-4010", "invalid or expired exchange key")
)

// ============================================================================
// Bearer Credential Errors (CRED)
// ============================================================================

var (
	// ErrCredentialMissing indicates no bearer credential was provided.
	ErrCredentialMissing = NewDomainError("CM-CRED-4010", "bearer credential not provided")

	// ErrCredentialInvalid indicates the bearer credential failed verification.
	ErrCredentialInvalid = NewDomainError("CM-CRED-4011", "invalid bearer credential")

	// ErrCredentialExpired indicates the bearer credential is past its window.
	ErrCredentialExpired = NewDomainError("CM-CRED-4012", "bearer credential expired")

	// ErrCredentialForbidden indicates a credential used against another client's session.
	ErrCredentialForbidden = NewDomainError("CM-CRED-4030", "credential does not authorize this client")
)

// ============================================================================
// Capability Errors (CAPA)
// ============================================================================

var (
	// ErrCapabilityFailure wraps any failure surfaced by the connection capability.
	ErrCapabilityFailure = NewDomainError("CM-CAPA-5000", "connection capability failure")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument. Request-level
	// validation uses ErrSessionValidation instead; this covers
	// programmatic misuse such as bad service configuration.
	ErrInvalidArgument = NewDomainError("CM-ARG-1001", "invalid argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("CM-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("CM-SYS-4290", "too many requests")
)
