// Package engine materializes expanded combinations as placed instances.
//
// ARCHITECTURE:
//
// A generation request flows through three stages:
//  1. Orchestrator resolves the component set, expands its top-level and
//     nested combinations and loads the surface's placement cursor.
//  2. Materializer applies each combination to a working instance, clones it
//     once per nested combination, and places every clone at the cursor.
//  3. Every placement advances the cursor, which is persisted immediately, so
//     an interrupted run resumes packing after the last placed instance.
//
// Requests are served one at a time. Runner drains a FIFO queue from a single
// goroutine; the cursor is the only shared mutable state and concurrent runs
// would race on it.
//
// FAILURE ISOLATION:
//
// A combination the host rejects is recorded and skipped; the next
// combination is still attempted and the cursor does not move. A nested
// combination the host rejects abandons only its clone. Errors that make the
// request meaningless (missing component, no template child, unreadable
// schema, storage failures) are terminal: the request is abandoned and a
// notice is emitted instead of the completion signal.
package engine
