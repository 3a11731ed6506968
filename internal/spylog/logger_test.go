package spylog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pinky-service/internal/buffer"
)

func waitForLen(t *testing.T, buf buffer.Buffer, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := buf.Len(context.Background())
		if err != nil {
			t.Fatalf("len: %v", err)
		}
		if n == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("buffer never reached length %d", want)
}

func TestRecordPushesEnvelope(t *testing.T) {
	buf := buffer.NewMemory()
	l := NewLogger(buf)
	l.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	userID, chatID := int64(42), int64(99)
	text := "hello"
	l.Record("start", Meta{UserID: &userID, ChatID: &chatID, Message: &text})

	waitForLen(t, buf, 1)
	items, err := buf.PopBatch(context.Background(), 1)
	if err != nil || len(items) != 1 {
		t.Fatalf("pop: %v / %v", items, err)
	}

	var ev Event
	if err := json.Unmarshal([]byte(items[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != "start" || ev.UserID == nil || *ev.UserID != 42 || ev.ChatID == nil || *ev.ChatID != 99 {
		t.Fatalf("unexpected envelope: %+v", ev)
	}
	if ev.Message == nil || *ev.Message != "hello" || ev.CallbackData != nil {
		t.Fatalf("unexpected context fields: %+v", ev)
	}
	if ev.ISOTs != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp: %q", ev.ISOTs)
	}
}

func TestRecordMissingIdentifiersStayNull(t *testing.T) {
	buf := buffer.NewMemory()
	l := NewLogger(buf)

	l.Record("free_text", Meta{})

	waitForLen(t, buf, 1)
	items, _ := buf.PopBatch(context.Background(), 1)

	var ev Event
	if err := json.Unmarshal([]byte(items[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.UserID != nil || ev.ChatID != nil || ev.Message != nil || ev.CallbackData != nil {
		t.Fatalf("missing fields must stay null: %+v", ev)
	}
}

// A dead buffer must cost the caller nothing: Record returns immediately and
// never panics or surfaces the failure.
func TestRecordSwallowsBufferFailure(t *testing.T) {
	buf := buffer.NewMemory()
	buf.FailPush = errors.New("connection refused")
	l := NewLogger(buf)

	for i := 0; i < 100; i++ {
		l.Record("start", Meta{})
	}

	// Give the async pushes a moment; nothing may have been enqueued and
	// nothing may have crashed.
	time.Sleep(50 * time.Millisecond)
	if n, _ := buf.Len(context.Background()); n != 0 {
		t.Fatalf("failed pushes must not enqueue, len=%d", n)
	}
}
