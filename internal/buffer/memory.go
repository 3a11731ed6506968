package buffer

import (
	"context"
	"sync"
)

// Memory is an in-process Buffer with the same atomicity contract as the
// Redis implementation. Used in tests and for running the bot without Redis.
type Memory struct {
	mu    sync.Mutex
	items []string

	// FailPush, when set, makes Push return this error. Lets tests simulate
	// an unreachable buffer.
	FailPush error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Push(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPush != nil {
		return m.FailPush
	}
	m.items = append(m.items, string(payload))
	return nil
}

func (m *Memory) PopBatch(_ context.Context, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || len(m.items) == 0 {
		return nil, nil
	}
	if n > len(m.items) {
		n = len(m.items)
	}
	batch := make([]string, n)
	copy(batch, m.items[:n])
	m.items = m.items[n:]
	return batch, nil
}

func (m *Memory) Len(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}
