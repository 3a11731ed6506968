package spylog

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pinky-service/internal/buffer"
)

// Logger records interaction events without ever failing or blocking the
// caller. Pushes run asynchronously; push errors land on a bounded channel
// consumed only for diagnostics, so a dead buffer costs a warning line and
// nothing else.
type Logger struct {
	buf  buffer.Buffer
	errc chan error
	now  func() time.Time
}

func NewLogger(buf buffer.Buffer) *Logger {
	l := &Logger{
		buf:  buf,
		errc: make(chan error, 32),
		now:  func() time.Time { return time.Now().UTC() },
	}
	go func() {
		for err := range l.errc {
			log.Printf("⚠️ failed to push event to buffer: %v", err)
		}
	}()
	return l
}

// Record serializes the event and appends it to the buffer. It never returns
// an error: serialization and push failures are reported on the diagnostic
// channel and swallowed, per the fire-and-forget contract.
func (l *Logger) Record(event string, meta Meta) {
	payload, err := json.Marshal(Event{
		Event:        event,
		UserID:       meta.UserID,
		ChatID:       meta.ChatID,
		ISOTs:        l.now().Format(time.RFC3339Nano),
		Message:      meta.Message,
		CallbackData: meta.CallbackData,
	})
	if err != nil {
		l.report(err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.buf.Push(ctx, payload); err != nil {
			l.report(err)
		}
	}()
}

func (l *Logger) report(err error) {
	select {
	case l.errc <- err:
	default:
		// Channel full: drop the diagnostic rather than block a producer.
	}
}
