// Package cmap provides a concurrent map implementation for ChatMesh.
//
// This package implements a sharded concurrent map used as the substrate
// of the per-client session registry, with the following features:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Atomic put-if-absent: GetOrSet / SetIfAbsent for idempotent creation
//   - Iteration: Safe iteration while holding read locks
//
// Usage:
//
//	m := cmap.New[string, *ClientSession]()
//	m.Set("client-a", session)
//	val, ok := m.Get("client-a")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete, Pop) use Lock.
package cmap
