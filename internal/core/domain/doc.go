// Package domain defines the core domain models for ChatMesh.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling: the client session, its
// lifecycle state machine, exchange keys, bearer credential claims,
// and the structured error taxonomy.
package domain
