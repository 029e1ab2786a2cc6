package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ventolog/ventolog/internal/record"
	"github.com/ventolog/ventolog/internal/store"
	"github.com/ventolog/ventolog/internal/testutil"
)

// testStart is the instant every test clock is frozen at.
var testStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// seqLimit keeps scripted random bytes below the uniform-draw cutoff
// for the 36-character code alphabet (256 - 256%36), so each byte maps
// to exactly one character: 0 -> A, 1 -> B, ...
const seqLimit = 252

// newTestLedger returns a ledger over a fresh store with a frozen
// clock and scripted randomness. The first issued code is always
// "ABCDEF"; the first token is the hex of bytes 6..37.
func newTestLedger(t *testing.T) (*Ledger, *store.Store, *testutil.Clock) {
	t.Helper()
	st := store.Open(filepath.Join(t.TempDir(), "data.json"))
	clock := testutil.NewClock(testStart)
	l := New(st,
		WithClock(clock.Now),
		WithRandom(testutil.SeqReader(seqLimit, 4096)),
	)
	return l, st, clock
}

// seedCredential writes a credential straight into the store,
// bypassing the ledger.
func seedCredential(t *testing.T, st *store.Store, cred record.Credential) {
	t.Helper()
	err := st.Update(func(doc *record.Document) (bool, error) {
		doc.Codes = append(doc.Codes, cred)
		return true, nil
	})
	if err != nil {
		t.Fatalf("seeding credential: %v", err)
	}
}

// seedLog writes a legacy log entry straight into the store.
func seedLog(t *testing.T, st *store.Store, entry record.LegacyLog) {
	t.Helper()
	err := st.Update(func(doc *record.Document) (bool, error) {
		doc.Logs = append(doc.Logs, entry)
		return true, nil
	})
	if err != nil {
		t.Fatalf("seeding log: %v", err)
	}
}

// storedCredential reads one credential back out of the store.
func storedCredential(t *testing.T, st *store.Store, code string) record.Credential {
	t.Helper()
	var cred record.Credential
	found := false
	err := st.View(func(doc record.Document) error {
		for _, c := range doc.Codes {
			if c.Code == code {
				cred = c
				found = true
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading credential: %v", err)
	}
	if !found {
		t.Fatalf("credential %q not in store", code)
	}
	return cred
}

func intp(n int) *int { return &n }
