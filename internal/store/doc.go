// Package store provides the SQLite-backed packaging ledger.
//
// Every successful "fmigen package" run appends one row to the packages
// table: model, GUID, platform, archive path and the SHA-256 digests of the
// archive and of the model description it carries.
//
// # Ordering and Idempotency
//
//   - Rows are ordered by seq, an autoincrement key; timestamps are
//     informational only.
//   - UNIQUE(model_name, platform, sha256): re-recording a byte-identical
//     archive is a no-op.
//
// # Queries
//
// FindPackages takes a Predicate tree (Equals, CreatedSince, And) and
// compiles it to a parameterized WHERE clause. Column names are checked
// against an allow list; values are never spliced into SQL.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
