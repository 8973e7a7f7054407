// Package domain defines the core domain models for ChatMesh.
package domain

// State is the lifecycle state of a client session.
type State string

// Session states. INITIALIZING and RESTORING are the two entry states;
// AUTH_FAILURE, DISCONNECTED and ERROR are terminal for the attempt.
// NOT_FOUND is virtual and never stored: it is reported for absent sessions.
const (
	StateInitializing  State = "INITIALIZING"
	StateRestoring     State = "RESTORING"
	StateLoading       State = "LOADING"
	StateQRCode        State = "QR_CODE"
	StateAuthenticated State = "AUTHENTICATED"
	StateConnected     State = "CONNECTED"
	StateAuthFailure   State = "AUTH_FAILURE"
	StateDisconnected  State = "DISCONNECTED"
	StateError         State = "ERROR"
	StateNotFound      State = "NOT_FOUND"
)

// IsTerminal reports whether the state ends the current connection attempt.
func (s State) IsTerminal() bool {
	switch s {
	case StateAuthFailure, StateDisconnected, StateError:
		return true
	}
	return false
}

// Event is a lifecycle event emitted by the connection capability.
type Event string

// Capability lifecycle events, in the order a successful handshake
// emits them: loading, code, authenticated, ready.
const (
	EventLoading       Event = "loading"
	EventCodeProduced  Event = "code"
	EventAuthenticated Event = "authenticated"
	EventReady         Event = "ready"
	EventAuthFailure   Event = "auth_failure"
	EventDisconnected  Event = "disconnected"
)

// Transition computes the next state for an event.
//
// It returns the next state and whether the transition is legal. The only
// guarded edge is EventReady: a session must have observed EventAuthenticated
// in the same attempt before it may become CONNECTED. Failure events are
// accepted from any state.
func Transition(current State, event Event) (State, bool) {
	switch event {
	case EventAuthFailure:
		return StateAuthFailure, true
	case EventDisconnected:
		return StateDisconnected, true
	case EventLoading:
		if current.IsTerminal() {
			return current, false
		}
		return StateLoading, true
	case EventCodeProduced:
		switch current {
		case StateInitializing, StateRestoring, StateLoading, StateQRCode:
			return StateQRCode, true
		}
		return current, false
	case EventAuthenticated:
		if current.IsTerminal() {
			return current, false
		}
		return StateAuthenticated, true
	case EventReady:
		switch current {
		case StateAuthenticated, StateConnected:
			return StateConnected, true
		}
		return current, false
	}
	return current, false
}
