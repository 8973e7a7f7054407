// Package shutdown coordinates graceful process shutdown.
//
// Components register hooks as they start; on SIGINT or SIGTERM the
// hooks run in reverse registration order under a shared deadline, so
// the HTTP server drains before the session core tears down.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler collects shutdown hooks and runs them on a termination signal.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []func(context.Context) error

	once sync.Once
	err  error
	done chan struct{}
}

// NewHandler creates a shutdown handler with the given hook deadline.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook. Hooks run in reverse registration order.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Wait blocks until SIGINT or SIGTERM, then runs every hook under one
// timeout context. All hooks run even if earlier ones fail; the last
// error wins.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	signal.Stop(sigCh)

	return h.Trigger()
}

// Trigger runs the hooks without waiting for a signal. Safe to call more
// than once; the hooks run only on the first call and later calls return
// the same error.
func (h *Handler) Trigger() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]func(context.Context) error, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				h.err = err
			}
		}

		close(h.done)
	})
	return h.err
}

// Done closes once shutdown has completed.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
