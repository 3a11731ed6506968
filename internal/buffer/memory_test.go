package buffer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
)

func TestMemoryFIFO(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 5; i++ {
		if err := m.Push(ctx, []byte(fmt.Sprintf("item-%d", i))); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	batch, err := m.PopBatch(ctx, 3)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("expected 3 items, got %d", len(batch))
	}
	for i, it := range batch {
		if it != fmt.Sprintf("item-%d", i) {
			t.Fatalf("order violated at %d: %q", i, it)
		}
	}

	// Asking for more than remains returns what is left.
	batch, err = m.PopBatch(ctx, 10)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != 2 || batch[0] != "item-3" || batch[1] != "item-4" {
		t.Fatalf("unexpected tail batch: %v", batch)
	}

	// Empty buffer yields an empty batch, not an error.
	batch, err = m.PopBatch(ctx, 10)
	if err != nil || len(batch) != 0 {
		t.Fatalf("expected empty batch on drained buffer, got %v / %v", batch, err)
	}
}

// Concurrent consumers must receive disjoint batches whose union is exactly
// the appended items, in append order with no gaps.
func TestMemoryConcurrentPopDisjoint(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const total = 1000
	for i := 0; i < total; i++ {
		if err := m.Push(ctx, []byte(strconv.Itoa(i))); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	const workers = 8
	var mu sync.Mutex
	var got []string
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, err := m.PopBatch(ctx, 7)
				if err != nil {
					t.Errorf("pop: %v", err)
					return
				}
				if len(batch) == 0 {
					return
				}
				mu.Lock()
				got = append(got, batch...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(got) != total {
		t.Fatalf("expected %d items total, got %d", total, len(got))
	}
	nums := make([]int, len(got))
	for i, s := range got {
		n, err := strconv.Atoi(s)
		if err != nil {
			t.Fatalf("bad item %q", s)
		}
		nums[i] = n
	}
	sort.Ints(nums)
	for i, n := range nums {
		if n != i {
			t.Fatalf("duplicate or gap at %d: %d", i, n)
		}
	}
}

func TestMemoryFailPush(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailPush = fmt.Errorf("connection refused")

	if err := m.Push(ctx, []byte("x")); err == nil {
		t.Fatalf("expected push failure")
	}
	if n, _ := m.Len(ctx); n != 0 {
		t.Fatalf("failed push must not enqueue, len=%d", n)
	}
}
