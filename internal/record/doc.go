// Package record defines the persisted data model for ventolog.
//
// This package contains type definitions and the deterministic id
// derivation only. All other internal packages import record; record
// imports nothing internal. This keeps the data model the foundational
// layer with no circular dependencies.
//
// Key constraints:
//   - The stored form is ONE JSON document with exactly three named
//     collections: codes, logs, events. All three keys are always
//     present, even when empty.
//   - Client-supplied date and timestamp values are stored verbatim as
//     strings; re-encoding them would change bytes other readers rely on.
//   - Server-generated instants (created_at, received_at, ...) are UTC.
//   - All JSON tags use snake_case.
package record
