// Package store provides the durable JSON-document storage for ventolog.
//
// The entire state is one JSON object with three named collections
// (codes, logs, events), read and written as a unit:
//
//   - Every logical update is read full document, mutate, write full
//     document, executed under one process-wide lock. Concurrent
//     operations serialize; none observes another's partial state.
//   - A missing file is not an error: it reads as the empty document
//     and is created on first write.
//   - A file that exists but cannot be read or parsed is fatal
//     (ErrCorrupt). The store never repairs or resets data it cannot
//     understand.
//   - Writes that change nothing are skipped, so no-op operations do
//     not touch the file.
//
// The store assumes this process is the only writer of the data file.
package store
