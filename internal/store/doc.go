// Package store provides the SQLite-backed conversion audit log.
//
// Every conversion run through the CLI with a database configured is
// appended as one record:
//   - conversions: request ID, source, selected scopes, status, output hash
//     and the full error payload of a failed run
//   - conversion_details: one row per top-level Detail, for message queries
//
// # Ordering
//
// Records are ordered by a logical seq number, never by timestamps. The
// clock resumes from the highest stored seq when a database is reopened.
// All list queries use ORDER BY seq ASC, id ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Scope lists are stored as canonical JSON and error payloads in the
// documented error schema, so stored rows compare byte for byte.
package store
