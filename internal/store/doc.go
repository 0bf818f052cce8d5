// Package store provides the SQLite-backed durable event log.
//
// The log is a single append-only table. Triggers abort any UPDATE or
// DELETE, and Append writes a batch in one transaction so a failed batch
// leaves nothing behind.
//
// Ordering: rows are read back by seq, the insertion order, which is also
// the order the engine applied them. Event ids are UUIDv7 and sort the same
// way.
//
// Integrity: every row carries the domain-separated SHA-256 of its canonical
// envelope. Reads recompute it and fail with ErrIntegrity on mismatch.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=FULL: an acknowledged append survives power loss
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single connection: SQLite has one writer anyway
package store
