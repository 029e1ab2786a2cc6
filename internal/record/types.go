package record

import "time"

// Medicine types accepted by the event ledger. Migration emits events
// in this order for each legacy entry.
const (
	TypeSpray     = "spray"
	TypeVentoline = "ventoline"
)

// MedicineTypes lists the known medicine types in a fixed order.
var MedicineTypes = []string{TypeSpray, TypeVentoline}

// Document is the whole persisted state. It is read and written as a
// unit: there is no partial update of a single collection on disk.
type Document struct {
	Codes  []Credential `json:"codes"`
	Logs   []LegacyLog  `json:"logs"`
	Events []Event      `json:"events"`
}

// Normalize replaces nil collections with empty ones so the marshaled
// document always carries all three keys. Files written before the
// events collection existed unmarshal with Events == nil.
func (d *Document) Normalize() {
	if d.Codes == nil {
		d.Codes = []Credential{}
	}
	if d.Logs == nil {
		d.Logs = []LegacyLog{}
	}
	if d.Events == nil {
		d.Events = []Event{}
	}
}

// Credential identifies one anonymous account. The code is the primary
// key; the token, once minted, never changes (clients cache it forever).
type Credential struct {
	Code             string    `json:"code"`
	CreatedAt        time.Time `json:"created_at"`
	Token            string    `json:"token,omitempty"`
	TokenGeneratedAt time.Time `json:"token_generated_at,omitzero"`
	LastLoginAt      time.Time `json:"last_login_at,omitzero"`
}

// LogEntry is the legacy per-day dose report. Counts are pointers so
// absent and zero stay distinguishable in the stored form.
type LogEntry struct {
	Date       string `json:"date"` // YYYY-MM-DD, stored verbatim
	Spray      *int   `json:"spray,omitempty"`
	Ventoline  *int   `json:"ventoline,omitempty"`
	Preventive *bool  `json:"preventive,omitempty"`
}

// LegacyLog wraps a LogEntry with its owner and arrival time. Old
// clients still write this shape; new data belongs in Events.
type LegacyLog struct {
	Code       string    `json:"code"`
	Log        LogEntry  `json:"log"`
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

// Event is one stored ledger event: the client-supplied body with its
// owner and arrival time.
type Event struct {
	Code       string    `json:"code"`
	Event      EventBody `json:"event"`
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

// EventBody is the client-supplied event payload. ID is the
// idempotency key within a code: appending the same (code, id) twice
// stores one event.
type EventBody struct {
	ID         string `json:"id"`
	Date       string `json:"date"`      // YYYY-MM-DD, stored verbatim
	Timestamp  string `json:"timestamp"` // ISO 8601, stored verbatim
	Type       string `json:"type"`      // TypeSpray or TypeVentoline
	Count      int    `json:"count"`
	Preventive bool   `json:"preventive"`
}
