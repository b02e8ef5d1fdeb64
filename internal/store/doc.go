// Package store provides SQLite-backed storage for recorded simulator
// sessions.
//
// A session is one headless run: the scenario that seeded it, the variant
// and tick budget it ran under, and its full frame log. Sessions are written
// once and never updated.
//
// # Ordering
//
// Every query orders by the seq column, an insertion counter, never by
// wall-clock time. Frame logs carry their position in the timeline as seq,
// so reading a session back yields the exact log order the engine produced.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Timeline digests are computed by internal/digest; the store only keeps
// them.
package store
