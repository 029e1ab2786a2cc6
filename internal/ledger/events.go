package ledger

import (
	"time"

	"github.com/ventolog/ventolog/internal/record"
)

// EventView is a stored event flattened for reads: the client-supplied
// fields plus the server arrival time.
type EventView struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	Timestamp  string    `json:"timestamp"`
	Type       string    `json:"type"`
	Count      int       `json:"count"`
	Preventive bool      `json:"preventive"`
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

// LogView is a legacy log entry flattened for reads. Counts absent in
// the stored entry read as zero.
type LogView struct {
	Date       string    `json:"date"`
	Spray      int       `json:"spray"`
	Ventoline  int       `json:"ventoline"`
	ReceivedAt time.Time `json:"received_at,omitzero"`
}

// AppendEvent stores one event for the code. The (code, event id) pair
// is the idempotency key: a duplicate append is skipped without error
// and reported as inserted=false. The same id under a different code
// is a distinct event.
func (l *Ledger) AppendEvent(code string, body record.EventBody) (inserted bool, err error) {
	err = l.store.Update(func(doc *record.Document) (bool, error) {
		for i := range doc.Events {
			if doc.Events[i].Code == code && doc.Events[i].Event.ID == body.ID {
				return false, nil
			}
		}
		doc.Events = append(doc.Events, record.Event{
			Code:       code,
			Event:      body,
			ReceivedAt: l.now(),
		})
		inserted = true
		return true, nil
	})
	return inserted, err
}

// ListEvents returns the events stored for a code, oldest first.
// Unknown codes read as empty, not as an error.
func (l *Ledger) ListEvents(code string) ([]EventView, error) {
	views := []EventView{}
	err := l.store.View(func(doc record.Document) error {
		for i := range doc.Events {
			ev := &doc.Events[i]
			if ev.Code != code {
				continue
			}
			views = append(views, EventView{
				ID:         ev.Event.ID,
				Date:       ev.Event.Date,
				Timestamp:  ev.Event.Timestamp,
				Type:       ev.Event.Type,
				Count:      ev.Event.Count,
				Preventive: ev.Event.Preventive,
				ReceivedAt: ev.ReceivedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// AppendLog stores one legacy log entry for the code. Old clients
// still write this shape; new data belongs in events.
func (l *Ledger) AppendLog(code string, entry record.LogEntry) error {
	return l.store.Update(func(doc *record.Document) (bool, error) {
		doc.Logs = append(doc.Logs, record.LegacyLog{
			Code:       code,
			Log:        entry,
			ReceivedAt: l.now(),
		})
		return true, nil
	})
}

// ListLogs returns the legacy log entries for a code, oldest first,
// with absent counts read as zero. Unknown codes read as empty.
// Migration does not change what this returns.
func (l *Ledger) ListLogs(code string) ([]LogView, error) {
	views := []LogView{}
	err := l.store.View(func(doc record.Document) error {
		for i := range doc.Logs {
			entry := &doc.Logs[i]
			if entry.Code != code {
				continue
			}
			views = append(views, LogView{
				Date:       entry.Log.Date,
				Spray:      intOrZero(entry.Log.Spray),
				Ventoline:  intOrZero(entry.Log.Ventoline),
				ReceivedAt: entry.ReceivedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func intOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
