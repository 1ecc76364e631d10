package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_BoundsConcurrency(t *testing.T) {
	s := New(context.Background(), Config{})

	var current, peak atomic.Int32
	for i := 0; i < 10; i++ {
		s.Enqueue(func(ctx context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil
		})
	}
	s.Wait()

	if got := peak.Load(); got != MaxConcurrency {
		t.Errorf("expected peak concurrency %d, got %d", MaxConcurrency, got)
	}
	if st := s.Stats(); st.Queued != 0 || st.InFlight != 0 {
		t.Errorf("expected drained scheduler, got %+v", st)
	}
}

func TestScheduler_StartsInFIFOOrder(t *testing.T) {
	s := New(context.Background(), Config{MaxConcurrency: 1})

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.Enqueue(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	s.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("expected FIFO start order, got %v", order)
		}
	}
	if len(order) != 5 {
		t.Errorf("expected 5 tasks run, got %d", len(order))
	}
}

func TestScheduler_FailuresReleaseSlots(t *testing.T) {
	var errCount atomic.Int32
	s := New(context.Background(), Config{
		OnError: func(err error) { errCount.Add(1) },
	})

	var done atomic.Int32
	s.Enqueue(func(ctx context.Context) error { return errors.New("boom") })
	s.Enqueue(func(ctx context.Context) error { panic("kaboom") })
	s.Enqueue(func(ctx context.Context) error { return errors.New("again") })
	for i := 0; i < 3; i++ {
		s.Enqueue(func(ctx context.Context) error {
			done.Add(1)
			return nil
		})
	}
	s.Wait()

	if got := errCount.Load(); got != 3 {
		t.Errorf("expected 3 reported errors, got %d", got)
	}
	if got := done.Load(); got != 3 {
		t.Errorf("expected the remaining 3 tasks to run, got %d", got)
	}
}

func TestScheduler_NilTaskIgnored(t *testing.T) {
	s := New(context.Background(), Config{})
	s.Enqueue(nil)
	s.Wait()
	if st := s.Stats(); st.Queued != 0 {
		t.Errorf("nil task was queued: %+v", st)
	}
}
