// Package ledger implements the ventolog operations on top of the
// document store: credential issue and login, token pairing, event and
// legacy log writes, reads, and the one-shot legacy migration.
//
// Every operation is a single critical section in the store, so the
// package is safe for concurrent use without further locking. Nothing
// here knows about HTTP; handlers map the typed errors to responses.
//
// Determinism: the wall clock and the randomness source are injectable
// (WithClock, WithRandom). Production uses time.Now and crypto/rand;
// tests script both so stored documents are reproducible byte for byte.
package ledger
