package spylog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the buffered envelope pushed by handlers and drained by the
// flusher. Field names are the wire format stored in the buffer; optional
// fields stay null when the update does not carry them.
type Event struct {
	Event        string  `json:"event"`
	UserID       *int64  `json:"user_id"`
	ChatID       *int64  `json:"chat_id"`
	ISOTs        string  `json:"iso_ts"`
	Message      *string `json:"message"`
	CallbackData *string `json:"callback_data"`
}

// Meta carries the best-effort context a handler can extract from an update.
type Meta struct {
	UserID       *int64
	ChatID       *int64
	Message      *string
	CallbackData *string
}

// Row is one decoded event ready for the spylog table: the full original
// payload as the action column, keyed by the user it belongs to.
type Row struct {
	UserID int64
	Action []byte
	Ts     time.Time
}

// decode parses a raw buffered item. Items that are not valid JSON or carry
// no user_id are rejected; such events cannot satisfy the event-log FK and
// are dropped by the flusher rather than persisted.
func decode(raw string) (Row, error) {
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return Row{}, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.UserID == nil {
		return Row{}, fmt.Errorf("missing user_id")
	}
	ts, err := time.Parse(time.RFC3339Nano, ev.ISOTs)
	if err != nil {
		// The bulk COPY supplies every column, so the ts default never
		// fires server-side; flush time stands in for it.
		ts = time.Now().UTC()
	}
	return Row{UserID: *ev.UserID, Action: []byte(raw), Ts: ts}, nil
}
