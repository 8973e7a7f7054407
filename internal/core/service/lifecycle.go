package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/chatmesh-go/internal/core/capability"
	"github.com/yndnr/chatmesh-go/internal/core/domain"
	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
	"github.com/yndnr/chatmesh-go/pkg/cmap"
)

// IdentityStore persists which clients have completed authentication, so
// their connections can be restored after a process restart. The store
// holds identity material only; it never sees exchange keys or bearer
// credentials.
type IdentityStore interface {
	// List returns the client ids with remembered identities.
	List(ctx context.Context) ([]string, error)

	// Remember records that the client has authenticated.
	Remember(ctx context.Context, clientID string) error

	// Forget discards the client's remembered identity.
	Forget(ctx context.Context, clientID string) error
}

// CreateOutcome is the result of a session creation request.
type CreateOutcome struct {
	Session *domain.ClientSession
	Key     *domain.ExchangeKey

	// Existed reports whether the session predates this request. Creation
	// is idempotent per client id: a second request observes the first
	// attempt instead of starting another.
	Existed bool
}

// LifecycleController drives client sessions through their lifecycle.
//
// It owns the capabilities behind the sessions in the registry, translates
// capability events into state transitions, and coordinates the handshake
// and exchange key services around them. All methods are safe for
// concurrent use.
type LifecycleController struct {
	registry    *SessionRegistry
	coordinator *HandshakeCoordinator
	issuer      *ExchangeKeyIssuer
	factory     capability.Factory
	store       IdentityStore
	renderer    Renderer
	logger      *slog.Logger
	metrics     *metric.Registry

	caps   *cmap.Map[string, capability.Capability]
	flight singleflight.Group
}

// NewLifecycleController creates a lifecycle controller.
func NewLifecycleController(
	registry *SessionRegistry,
	coordinator *HandshakeCoordinator,
	issuer *ExchangeKeyIssuer,
	factory capability.Factory,
	store IdentityStore,
	renderer Renderer,
	logger *slog.Logger,
	metrics *metric.Registry,
) *LifecycleController {
	if renderer == nil {
		renderer = IdentityRenderer
	}
	return &LifecycleController{
		registry:    registry,
		coordinator: coordinator,
		issuer:      issuer,
		factory:     factory,
		store:       store,
		renderer:    renderer,
		logger:      logger,
		metrics:     metrics,
		caps:        cmap.New[string, capability.Capability](),
	}
}

// Create starts a session for the client, or reuses the one in flight.
//
// Concurrent calls for the same client id collapse into a single attempt;
// every caller observes the same session and exchange key. For an already
// connected session no key is issued and Existed is true, steering the
// caller to the authenticated response path.
func (c *LifecycleController) Create(ctx context.Context, clientID string) (*CreateOutcome, error) {
	if err := domain.ValidateClientID(clientID); err != nil {
		return nil, err
	}

	v, err, _ := c.flight.Do(clientID, func() (any, error) {
		return c.createLocked(ctx, clientID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CreateOutcome), nil
}

func (c *LifecycleController) createLocked(ctx context.Context, clientID string) (*CreateOutcome, error) {
	if session, ok := c.registry.Get(clientID); ok {
		if session.Connected() {
			return &CreateOutcome{Session: session, Existed: true}, nil
		}
		if session.State().IsTerminal() {
			// The previous attempt ended; tear it down and start over.
			c.teardown(context.WithoutCancel(ctx), clientID)
		} else {
			// An attempt is in flight. Hand out its key so a retried
			// request latches onto the same handshake.
			key, ok := c.issuer.Current(clientID)
			if !ok {
				issued, err := c.issuer.Issue(clientID)
				if err != nil {
					return nil, domain.ErrInternalServer.WithCause(err)
				}
				c.metrics.ExchangeKeysIssued.Inc()
				key = issued
			}
			return &CreateOutcome{Session: session, Key: key, Existed: true}, nil
		}
	}

	session, err := c.start(ctx, clientID, domain.StateInitializing)
	if err != nil {
		return nil, err
	}

	key, err := c.issuer.Issue(clientID)
	if err != nil {
		c.teardown(context.WithoutCancel(ctx), clientID)
		return nil, domain.ErrInternalServer.WithCause(err)
	}
	c.metrics.SessionsCreated.Inc()
	c.metrics.ExchangeKeysIssued.Inc()

	return &CreateOutcome{Session: session, Key: key}, nil
}

// Restore starts a session for a client with a remembered identity. No
// exchange key is issued: restoration is expected to authenticate from
// stored identity without a handshake. If the identity has gone stale the
// capability falls back to producing a fresh code, which waiters receive
// through the usual handshake path.
func (c *LifecycleController) Restore(ctx context.Context, clientID string) error {
	if err := domain.ValidateClientID(clientID); err != nil {
		return err
	}
	if _, ok := c.registry.Get(clientID); ok {
		return nil
	}
	if _, err := c.start(ctx, clientID, domain.StateRestoring); err != nil {
		return err
	}
	c.metrics.SessionsRestored.Inc()
	return nil
}

// RestoreAll restores every client the identity store remembers. A failure
// to restore one client is logged and does not block the others.
func (c *LifecycleController) RestoreAll(ctx context.Context) error {
	ids, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing remembered identities: %w", err)
	}

	for _, clientID := range ids {
		if err := c.Restore(ctx, clientID); err != nil {
			c.logger.Error("session restore failed",
				"client_id", clientID,
				"error", err)
			continue
		}
		c.logger.Info("session restoring", "client_id", clientID)
	}
	return nil
}

// start allocates the session and capability and begins initialization.
func (c *LifecycleController) start(ctx context.Context, clientID string, entry domain.State) (*domain.ClientSession, error) {
	session, err := domain.NewClientSession(clientID, entry)
	if err != nil {
		return nil, err
	}

	sink := &eventSink{controller: c, clientID: clientID, session: session}
	cap, err := c.factory(clientID, sink)
	if err != nil {
		return nil, domain.ErrCapabilityFailure.
			WithDetails("capability construction failed").
			WithCause(err)
	}

	c.coordinator.Begin(clientID)
	c.registry.Put(clientID, session)
	c.caps.Set(clientID, cap)

	c.logger.Info("session starting",
		"client_id", clientID,
		"attempt_id", session.AttemptID,
		"entry_state", string(entry))

	// Initialization runs detached from the request: the session outlives
	// the HTTP call that created it.
	go func() {
		initCtx := context.WithoutCancel(ctx)
		if err := cap.Initialize(initCtx); err != nil {
			session.Fail()
			c.coordinator.Fail(clientID, domain.ErrCapabilityFailure.
				WithDetails("connection initialization failed").
				WithCause(err))
			c.logger.Error("capability initialization failed",
				"client_id", clientID,
				"error", err)
		}
	}()

	return session, nil
}

// WaitForCode blocks until the client's handshake produces a pairing code,
// the timeout lapses, or the wait becomes moot.
func (c *LifecycleController) WaitForCode(ctx context.Context, clientID string, timeout time.Duration) (string, error) {
	session, ok := c.registry.Get(clientID)
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if session.Connected() {
		return "", domain.ErrAlreadyAuthenticated
	}

	c.metrics.HandshakeWaits.Inc()
	artifact, err := c.coordinator.Wait(ctx, clientID, timeout)
	if err != nil {
		if errors.Is(err, domain.ErrHandshakeTimeout) {
			c.metrics.HandshakeTimeouts.Inc()
		}
		// The session may have authenticated while we waited; the
		// rejected waiter should see success, not a stale failure.
		if session.Connected() {
			return "", domain.ErrAlreadyAuthenticated
		}
		return "", err
	}
	return artifact, nil
}

// Destroy tears down the client's session, connection and exchange key.
func (c *LifecycleController) Destroy(ctx context.Context, clientID string) error {
	if _, ok := c.registry.Get(clientID); !ok {
		return domain.ErrSessionNotFound
	}
	c.teardown(ctx, clientID)
	c.logger.Info("session destroyed", "client_id", clientID)
	return nil
}

// Logout ends the client's authenticated connection, forgets its stored
// identity, and destroys the session. After logout the client must run a
// fresh handshake to reconnect.
func (c *LifecycleController) Logout(ctx context.Context, clientID string) error {
	if _, ok := c.registry.Get(clientID); !ok {
		return domain.ErrSessionNotFound
	}
	if err := c.store.Forget(ctx, clientID); err != nil {
		c.logger.Error("forgetting stored identity failed",
			"client_id", clientID,
			"error", err)
	}
	c.teardown(ctx, clientID)
	c.logger.Info("session logged out", "client_id", clientID)
	return nil
}

// teardown removes every trace of the client's session. Capability
// shutdown errors are logged, not returned: after teardown the session is
// gone regardless.
func (c *LifecycleController) teardown(ctx context.Context, clientID string) {
	if cap, ok := c.caps.Pop(clientID); ok {
		if err := cap.Logout(ctx); err != nil {
			c.logger.Warn("capability logout failed",
				"client_id", clientID,
				"error", err)
		}
		if err := cap.Destroy(ctx); err != nil {
			c.logger.Warn("capability destroy failed",
				"client_id", clientID,
				"error", err)
		}
	}
	if _, ok := c.registry.Remove(clientID); ok {
		c.metrics.SessionsDestroyed.Inc()
	}
	c.coordinator.Clear(clientID)
	c.issuer.Remove(clientID)
}

// Capability returns the live connection for a client.
func (c *LifecycleController) Capability(clientID string) (capability.Capability, error) {
	cap, ok := c.caps.Get(clientID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cap, nil
}

// Shutdown destroys all sessions. Stored identities are kept so the
// sessions can be restored on the next start.
func (c *LifecycleController) Shutdown(ctx context.Context) error {
	for _, clientID := range c.caps.Keys() {
		c.teardown(ctx, clientID)
	}
	return nil
}

// eventSink adapts capability events for one client into session state
// transitions and handshake outcomes. Methods run on the capability's
// event goroutine and must not block.
type eventSink struct {
	controller *LifecycleController
	clientID   string
	session    *domain.ClientSession
}

func (s *eventSink) LoadingProgress(percent int, message string) {
	s.controller.metrics.CapabilityEvents.WithLabelValues(string(domain.EventLoading)).Inc()
	s.apply(domain.EventLoading)
	s.controller.logger.Debug("session loading",
		"client_id", s.clientID,
		"percent", percent,
		"message", message)
}

func (s *eventSink) CodeProduced(raw string) {
	s.controller.metrics.CapabilityEvents.WithLabelValues(string(domain.EventCodeProduced)).Inc()
	if !s.apply(domain.EventCodeProduced) {
		return
	}

	rendered, err := s.controller.renderer(raw)
	if err != nil {
		s.controller.coordinator.Fail(s.clientID, domain.ErrInternalServer.
			WithDetails("pairing code rendering failed").
			WithCause(err))
		s.controller.logger.Error("pairing code rendering failed",
			"client_id", s.clientID,
			"error", err)
		return
	}

	s.controller.coordinator.Resolve(s.clientID, rendered)
	s.controller.logger.Info("pairing code produced", "client_id", s.clientID)
}

func (s *eventSink) Authenticated() {
	s.controller.metrics.CapabilityEvents.WithLabelValues(string(domain.EventAuthenticated)).Inc()
	if !s.apply(domain.EventAuthenticated) {
		return
	}

	if err := s.controller.store.Remember(context.Background(), s.clientID); err != nil {
		s.controller.logger.Error("remembering identity failed",
			"client_id", s.clientID,
			"error", err)
	}
	s.controller.logger.Info("session authenticated", "client_id", s.clientID)
}

func (s *eventSink) Ready() {
	s.controller.metrics.CapabilityEvents.WithLabelValues(string(domain.EventReady)).Inc()
	if !s.apply(domain.EventReady) {
		return
	}

	// The handshake is over; release any stragglers still waiting on a
	// code so they can observe the connected session.
	s.controller.coordinator.Clear(s.clientID)
	s.controller.logger.Info("session connected", "client_id", s.clientID)
}

func (s *eventSink) AuthFailure(message string) {
	s.controller.metrics.CapabilityEvents.WithLabelValues(string(domain.EventAuthFailure)).Inc()
	s.apply(domain.EventAuthFailure)

	s.controller.coordinator.Fail(s.clientID, domain.ErrCapabilityFailure.
		WithDetails(message))
	s.controller.issuer.Remove(s.clientID)
	s.controller.logger.Warn("session authentication failed",
		"client_id", s.clientID,
		"message", message)
}

func (s *eventSink) Disconnected(reason string) {
	s.controller.metrics.CapabilityEvents.WithLabelValues(string(domain.EventDisconnected)).Inc()
	s.apply(domain.EventDisconnected)

	s.controller.coordinator.Fail(s.clientID, domain.ErrCapabilityFailure.
		WithDetails(reason))
	s.controller.issuer.Remove(s.clientID)
	s.controller.logger.Warn("session disconnected",
		"client_id", s.clientID,
		"reason", reason)
}

func (s *eventSink) InboundMessage(msg *capability.Message) {
	s.controller.metrics.InboundMessages.Inc()
	s.controller.logger.Debug("inbound message",
		"client_id", s.clientID,
		"chat_id", msg.ChatID,
		"from", msg.From)
}

func (s *eventSink) apply(event domain.Event) bool {
	next, ok := s.session.Apply(event)
	if !ok {
		s.controller.logger.Debug("event ignored in current state",
			"client_id", s.clientID,
			"event", string(event),
			"state", string(s.session.State()))
		return false
	}
	s.controller.logger.Debug("session state changed",
		"client_id", s.clientID,
		"event", string(event),
		"state", string(next))
	return true
}
