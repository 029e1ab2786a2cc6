package ledger

import "github.com/ventolog/ventolog/internal/record"

// midday is appended to the entry date to synthesize an event
// timestamp. Legacy logs are daily totals with no time of day; noon
// UTC keeps the event on the same calendar day in any timezone a
// reader is likely to use.
const midday = "T12:00:00.000Z"

// MigrationResult summarizes one migration run.
type MigrationResult struct {
	LogsScanned   int  `json:"logs_scanned"`
	EventsCreated int  `json:"events_created"`
	EventsSkipped int  `json:"events_skipped"`
	Persisted     bool `json:"persisted"`
}

// Migrate converts every legacy log entry into per-medicine events.
//
// Each entry yields one event per medicine type with a positive count;
// zero and absent counts yield nothing. Event ids derive
// deterministically from (code, date, type) via record.DeriveEventID,
// which makes the whole run idempotent: an id already present in the
// document, or already produced earlier in the same run, is skipped.
// Derived events carry the entry's fields, preventive=false, a noon
// UTC timestamp on the entry's date, and the entry's received_at (the
// current time when the entry has none).
//
// Scan and append happen in one critical section and all created
// events are persisted in one batch. When nothing new is produced the
// document is not rewritten. Legacy entries are left in place.
func (l *Ledger) Migrate() (MigrationResult, error) {
	var res MigrationResult
	err := l.store.Update(func(doc *record.Document) (bool, error) {
		seen := make(map[string]bool, len(doc.Events))
		for i := range doc.Events {
			seen[doc.Events[i].Event.ID] = true
		}

		var created []record.Event
		for i := range doc.Logs {
			entry := &doc.Logs[i]
			res.LogsScanned++

			for _, medicineType := range record.MedicineTypes {
				count := logCount(entry.Log, medicineType)
				if count <= 0 {
					continue
				}

				id := record.DeriveEventID(entry.Code, entry.Log.Date, medicineType)
				if seen[id] {
					res.EventsSkipped++
					continue
				}
				seen[id] = true

				receivedAt := entry.ReceivedAt
				if receivedAt.IsZero() {
					receivedAt = l.now()
				}

				created = append(created, record.Event{
					Code: entry.Code,
					Event: record.EventBody{
						ID:         id,
						Date:       entry.Log.Date,
						Timestamp:  entry.Log.Date + midday,
						Type:       medicineType,
						Count:      count,
						Preventive: false,
					},
					ReceivedAt: receivedAt,
				})
			}
		}

		if len(created) == 0 {
			return false, nil
		}
		doc.Events = append(doc.Events, created...)
		res.EventsCreated = len(created)
		res.Persisted = true
		return true, nil
	})
	if err != nil {
		return MigrationResult{}, err
	}
	return res, nil
}

// logCount extracts the dose count for one medicine type from a legacy
// entry. Absent counts read as zero.
func logCount(entry record.LogEntry, medicineType string) int {
	switch medicineType {
	case record.TypeSpray:
		return intOrZero(entry.Spray)
	case record.TypeVentoline:
		return intOrZero(entry.Ventoline)
	}
	return 0
}
