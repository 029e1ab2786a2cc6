package ledger

import (
	"crypto/rand"
	"errors"
	"io"
	"time"

	"github.com/ventolog/ventolog/internal/record"
	"github.com/ventolog/ventolog/internal/store"
)

// Errors returned by ledger operations.
var (
	// ErrCodeNotFound reports an operation against a code that was
	// never issued.
	ErrCodeNotFound = errors.New("code not found")

	// ErrTokenInvalid reports a token that resolves to no credential.
	ErrTokenInvalid = errors.New("token invalid")
)

// Ledger implements the credential and event operations over a store.
type Ledger struct {
	store *store.Store
	clock func() time.Time
	rand  io.Reader
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock. Tests use a fixed clock so stored
// timestamps are deterministic.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithRandom replaces the randomness source used for codes and tokens.
// Tests script the source; production always uses crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(l *Ledger) { l.rand = r }
}

// New returns a ledger over the given store.
func New(st *store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: st,
		clock: time.Now,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// now returns the current instant in UTC. Everything the ledger stamps
// is UTC; local offsets never reach the document.
func (l *Ledger) now() time.Time {
	return l.clock().UTC()
}

// findCredential returns a pointer into creds for the given code, or
// nil. The pointer is only valid while the store lock is held.
func findCredential(creds []record.Credential, code string) *record.Credential {
	for i := range creds {
		if creds[i].Code == code {
			return &creds[i]
		}
	}
	return nil
}
