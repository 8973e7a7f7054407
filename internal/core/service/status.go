package service

import (
	"context"
	"log/slog"

	"github.com/yndnr/chatmesh-go/internal/core/capability"
	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

// Report is a point-in-time view of one client's session.
type Report struct {
	ClientID  string
	Exists    bool
	Connected bool
	State     domain.State
	Info      *capability.Profile
}

// StatusReporter answers status queries from cached session state,
// consulting the live connection only to disambiguate or enrich.
type StatusReporter struct {
	registry  *SessionRegistry
	lifecycle *LifecycleController
	logger    *slog.Logger
}

// NewStatusReporter creates a status reporter.
func NewStatusReporter(registry *SessionRegistry, lifecycle *LifecycleController, logger *slog.Logger) *StatusReporter {
	return &StatusReporter{
		registry:  registry,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Status reports the client's session state. A query for an unknown
// client is an answer, not an error: Exists is false and the state is
// NOT_FOUND.
//
// The cached state can lag the connection by one event in exactly one
// spot: AUTHENTICATED with the ready signal still in flight. Only there
// does the reporter ask the connection directly; a probe failure falls
// back to the cache.
func (r *StatusReporter) Status(ctx context.Context, clientID string) *Report {
	session, ok := r.registry.Get(clientID)
	if !ok {
		return &Report{ClientID: clientID, State: domain.StateNotFound}
	}

	report := &Report{
		ClientID:  clientID,
		Exists:    true,
		Connected: session.Connected(),
		State:     session.State(),
	}

	if report.State == domain.StateAuthenticated {
		r.probe(ctx, clientID, session, report)
	}

	if report.Connected {
		report.Info = r.profile(ctx, clientID)
	}
	return report
}

// probe asks the connection whether it has finished coming up.
func (r *StatusReporter) probe(ctx context.Context, clientID string, session *domain.ClientSession, report *Report) {
	cap, err := r.lifecycle.Capability(clientID)
	if err != nil {
		return
	}
	raw, err := cap.GetState(ctx)
	if err != nil {
		r.logger.Debug("state probe failed, using cached state",
			"client_id", clientID,
			"error", err)
		return
	}
	if domain.State(raw) != domain.StateConnected {
		return
	}
	if next, ok := session.Apply(domain.EventReady); ok {
		report.State = next
		report.Connected = session.Connected()
	}
}

func (r *StatusReporter) profile(ctx context.Context, clientID string) *capability.Profile {
	cap, err := r.lifecycle.Capability(clientID)
	if err != nil {
		return nil
	}
	info, err := cap.Profile(ctx)
	if err != nil {
		r.logger.Debug("profile fetch failed",
			"client_id", clientID,
			"error", err)
		return nil
	}
	return info
}
