// Package sqlite persists built corpora in a SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements
// driven.IndexStore: one row per session plus one row per indexed unit,
// with vectors stored as little-endian float32 blobs.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory, embedded at build time. Migrations only move forward: a
// corpus can always be rebuilt, so there are no down scripts. Applied
// versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.mailqa/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Replacing a session runs in a single
// transaction, and SQLite runs in WAL mode so readers do not block the
// writer.
package sqlite
