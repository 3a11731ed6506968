package spylog

import (
	"context"
	"fmt"
	"log"

	"pinky-service/internal/buffer"
)

// EventSink persists one drained batch as a single bulk insert.
type EventSink interface {
	InsertEvents(ctx context.Context, rows []Row) (int64, error)
}

// Flusher drains the buffer into the persistent event log. Safe to run from
// several workers at once: each PopBatch grabs a disjoint slice of the queue.
type Flusher struct {
	buf  buffer.Buffer
	sink EventSink
}

func NewFlusher(buf buffer.Buffer, sink EventSink) *Flusher {
	return &Flusher{buf: buf, sink: sink}
}

// Flush drains the buffer to completion in batches of batchSize and returns
// the number of rows persisted. Malformed items are dropped with a
// diagnostic and never abort their batch. An insert failure aborts the
// drain with the count persisted so far; the failed batch is already off
// the buffer and is not retried (accepted at-least-once gap — a crash
// between dequeue and insert loses that batch).
func (f *Flusher) Flush(ctx context.Context, batchSize int) (int64, error) {
	var total int64
	for {
		batch, err := f.buf.PopBatch(ctx, batchSize)
		if err != nil {
			return total, fmt.Errorf("pop batch: %w", err)
		}
		if len(batch) == 0 {
			return total, nil
		}

		rows := make([]Row, 0, len(batch))
		for _, raw := range batch {
			row, err := decode(raw)
			if err != nil {
				log.Printf("⚠️ dropping malformed event %q: %v", raw, err)
				continue
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}

		n, err := f.sink.InsertEvents(ctx, rows)
		if err != nil {
			return total, fmt.Errorf("insert batch of %d events: %w", len(rows), err)
		}
		total += n
	}
}
