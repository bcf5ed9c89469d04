// Package registry implements the printer registry: nodes, printers, and
// their last-known display states, persisted as a single JSON snapshot file.
//
// The Store is the only writer of the snapshot file. Every read sanitizes
// the snapshot (entries violating referential invariants are dropped, never
// surfaced as errors), and every mutation follows the same protocol:
// read-current, apply, re-sanitize, stamp updatedAt, persist, refresh the
// in-memory cache.
//
// # Invariants
//
//   - Node and printer ids are unique within a snapshot
//   - Every printer's nodeId resolves to a present node
//   - Every state-map key resolves to a present printer
//
// # Concurrency
//
// Mutations are serialized in-process with a mutex. There is no cross-process
// file locking: two processes writing the same snapshot file interleave with
// last-write-wins semantics. This is an accepted limitation for the
// single-operator deployments PrintDeck targets.
package registry
