// Package sqlite provides the SQLite implementation of driven.MetadataStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database holds three tables:
//
//   - documents: one row per ingested file
//   - chunks: chunk text and the vector point ID that indexes it
//   - query_logs: append-only audit of answered queries
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.athena/data/athena.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
