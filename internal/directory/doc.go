// Package directory holds the authoritative account directory for one
// node: the name → record mapping, the create/get/remove contract, the
// change-notification fan-out the replication link subscribes to, and the
// alias resolution query.
//
// The directory is process-wide shared mutable state with a single-writer
// discipline: every mutating entry point runs on the node's one
// event-processing goroutine. Nothing here blocks on I/O; mutations apply
// to local state first and the resulting notifications are handed off
// fire-and-forget.
//
// Convergence across nodes does not depend on delivery order. Each field
// merges last-writer-wins through the extension framework, so replaying
// the same updates in any order on any node reaches the same state.
package directory
