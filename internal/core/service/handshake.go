// Package service provides the domain services for ChatMesh.
//
// HandshakeCoordinator manages the one-shot code artifact per client and
// the bounded waits for it.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

// Renderer converts the raw capability code into the artifact exposed to
// callers. Image rendering is an external concern; the default renderer
// returns the raw code unchanged.
type Renderer func(raw string) (string, error)

// IdentityRenderer returns the raw code as the artifact.
func IdentityRenderer(raw string) (string, error) {
	return raw, nil
}

// completionCell is a single-shot completion signal.
//
// Exactly one of resolve or reject takes effect; later calls are ignored.
// This makes "at most one artifact ever delivered" structural rather than
// a property of caller discipline.
type completionCell struct {
	once     sync.Once
	done     chan struct{}
	artifact string
	err      error
}

func newCompletionCell() *completionCell {
	return &completionCell{done: make(chan struct{})}
}

func (c *completionCell) resolve(artifact string) {
	c.once.Do(func() {
		c.artifact = artifact
		close(c.done)
	})
}

func (c *completionCell) reject(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// HandshakeCoordinator tracks at most one live waiter cell and one cached
// artifact per client identifier.
type HandshakeCoordinator struct {
	mu        sync.Mutex
	waiters   map[string]*completionCell
	artifacts map[string]string
}

// NewHandshakeCoordinator creates an empty coordinator.
func NewHandshakeCoordinator() *HandshakeCoordinator {
	return &HandshakeCoordinator{
		waiters:   make(map[string]*completionCell),
		artifacts: make(map[string]string),
	}
}

// Begin installs a fresh completion cell for a new handshake attempt.
//
// Any prior cell is rejected as superseded so stale waiters fail fast
// instead of hanging on an attempt that no longer exists.
func (h *HandshakeCoordinator) Begin(clientID string) {
	h.mu.Lock()
	prior := h.waiters[clientID]
	h.waiters[clientID] = newCompletionCell()
	delete(h.artifacts, clientID)
	h.mu.Unlock()

	if prior != nil {
		prior.reject(domain.ErrHandshakeSuperseded)
	}
}

// Resolve caches the artifact and completes the current cell.
// Resolving without a cell still caches the artifact for later waits.
func (h *HandshakeCoordinator) Resolve(clientID, artifact string) {
	h.mu.Lock()
	h.artifacts[clientID] = artifact
	cell := h.waiters[clientID]
	h.mu.Unlock()

	if cell != nil {
		cell.resolve(artifact)
	}
}

// Fail completes the current cell with an error and clears all state.
func (h *HandshakeCoordinator) Fail(clientID string, err error) {
	h.mu.Lock()
	cell := h.waiters[clientID]
	delete(h.waiters, clientID)
	delete(h.artifacts, clientID)
	h.mu.Unlock()

	if cell != nil {
		cell.reject(err)
	}
}

// Clear discards the cell and cached artifact without completing anything.
// Used when the session reaches ready and the artifact is no longer relevant.
func (h *HandshakeCoordinator) Clear(clientID string) {
	h.mu.Lock()
	cell := h.waiters[clientID]
	delete(h.waiters, clientID)
	delete(h.artifacts, clientID)
	h.mu.Unlock()

	if cell != nil {
		cell.reject(domain.ErrHandshakeSuperseded)
	}
}

// Artifact returns the cached artifact, if one was produced.
func (h *HandshakeCoordinator) Artifact(clientID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	artifact, ok := h.artifacts[clientID]
	return artifact, ok
}

// Wait blocks until the artifact is produced, the attempt fails, the
// timeout elapses, or ctx is cancelled.
//
// If an artifact is already cached it is returned immediately; waiting
// twice after production yields the identical artifact. On timeout
// ErrHandshakeTimeout is returned; the completion cell stays registered
// for the attempt, so a retried wait latches onto the same cell instead
// of being blocked by a stale callback pair.
func (h *HandshakeCoordinator) Wait(ctx context.Context, clientID string, timeout time.Duration) (string, error) {
	h.mu.Lock()
	if artifact, ok := h.artifacts[clientID]; ok {
		h.mu.Unlock()
		return artifact, nil
	}
	cell := h.waiters[clientID]
	h.mu.Unlock()

	if cell == nil {
		return "", domain.ErrSessionNotFound.WithDetails("no handshake in progress")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-cell.done:
		if cell.err != nil {
			return "", cell.err
		}
		return cell.artifact, nil
	case <-timer.C:
		return "", domain.ErrHandshakeTimeout
	case <-ctx.Done():
		return "", domain.ErrHandshakeTimeout.WithCause(ctx.Err())
	}
}
