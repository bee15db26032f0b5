// Package store provides SQLite-backed durable state for variantforge.
//
// The store holds:
//   - Cursors: the placement cursor per surface, x and y kept as TEXT
//   - Runs: one row per generation request with its final counts
//   - Placements: every successfully placed instance, in placement order
//   - Run failures: every combination or nested combination that was rejected
//
// The cursor row is written after every successful placement, so a crash
// mid-run leaves a cursor that continues after the last placed instance.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
