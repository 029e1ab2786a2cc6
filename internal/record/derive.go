package record

import "github.com/google/uuid"

// EventNamespace is the fixed UUID namespace for event ids derived from
// legacy log entries. The value is part of the storage contract: any
// implementation deriving ids under this namespace produces the same
// ids for the same entries, so repeated or cross-implementation
// migrations never duplicate. It must never change.
var EventNamespace = uuid.MustParse("0f7d9a1e-5bc8-4c66-9e2a-7d41f3a8c05b")

// deriveVersion prefixes the derivation name. Bumping it would rotate
// the scheme without colliding with ids minted under the old one.
const deriveVersion = "v1"

// DeriveEventID returns the deterministic event id for one medicine
// type of one legacy log entry. The id is a name-based (SHA-1) UUID
// over (code, date, type): the same triple always yields the same id,
// and any differing field yields a different one. Pure function, no
// clock or randomness.
func DeriveEventID(code, date, medicineType string) string {
	name := deriveVersion + ":" + code + ":" + date + ":" + medicineType
	return uuid.NewSHA1(EventNamespace, []byte(name)).String()
}
