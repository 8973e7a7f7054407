// Package service provides the domain services for ChatMesh.
//
// The session core lives here: the session registry, the lifecycle
// controller driving the per-client state machine from capability
// events, the handshake coordinator with its single-shot completion
// cells, the exchange key issuer, the bearer credential service, the
// status reporter, and the background expiry sweeper.
//
// Services contain pure business logic and define interfaces for their
// collaborators (the capability factory and the credential identity
// store); they never touch HTTP concerns.
package service
