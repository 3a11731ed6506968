package buffer

import "context"

// Buffer is an ordered FIFO queue shared between producers and flush workers.
// Push appends to the tail. PopBatch atomically removes up to n items from
// the head: no two concurrent callers ever receive the same item, and a
// removed item is never lost before it is returned.
// Implementations must be safe for concurrent use.
type Buffer interface {
	Push(ctx context.Context, payload []byte) error
	PopBatch(ctx context.Context, n int) ([]string, error)
	Len(ctx context.Context) (int64, error)
}
