// Package store provides SQLite-backed persistence for the account
// directory.
//
// The database holds a snapshot, not a log: one row per account for the
// built-in fields, plus one row per populated extension slot serialized
// in storage format. Loading replays every row through the extension
// merge framework, so a load into a non-empty directory is a merge, and
// loading the same snapshot twice is a no-op.
//
// Attached as a directory listener, the store persists write-through:
// every broadcast change is upserted as it happens.
//
// Database configuration follows the usual embedded-SQLite setup:
//   - WAL mode for concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON (extension rows cascade on account delete)
package store
