package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestRecord() *Record {
	return newBuyRecord(testSignal(), "wallet-1", decimal.NewFromFloat(0.5))
}

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()

	first := newTestRecord()
	second := newTestRecord()
	third := newTestRecord()

	q.Push(first)
	q.Push(second)
	q.Push(third)

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	ctx := context.Background()
	done := make(chan struct{})

	for i, want := range []*Record{first, second, third} {
		got, ok := q.Pop(ctx, done)
		if !ok {
			t.Fatalf("Pop() #%d returned false", i)
		}
		if got != want {
			t.Errorf("Pop() #%d = %s, want %s", i, got.ID(), want.ID())
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := newQueue()
	rec := newTestRecord()

	result := make(chan *Record, 1)
	go func() {
		r, ok := q.Pop(context.Background(), make(chan struct{}))
		if ok {
			result <- r
		}
	}()

	// Give the consumer time to block.
	time.Sleep(10 * time.Millisecond)
	q.Push(rec)

	select {
	case got := <-result:
		if got != rec {
			t.Errorf("Pop() = %s, want %s", got.ID(), rec.ID())
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not wake after Push()")
	}
}

func TestQueue_PopReturnsOnDone(t *testing.T) {
	q := newQueue()
	done := make(chan struct{})

	result := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(context.Background(), done)
		result <- ok
	}()

	close(done)

	select {
	case ok := <-result:
		if ok {
			t.Error("Pop() = true after done, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after done closed")
	}
}

func TestQueue_PopReturnsOnContextCancel(t *testing.T) {
	q := newQueue()
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx, make(chan struct{}))
		result <- ok
	}()

	cancel()

	select {
	case ok := <-result:
		if ok {
			t.Error("Pop() = true after cancel, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after context cancel")
	}
}

func TestQueue_RetryReentersAtTail(t *testing.T) {
	q := newQueue()
	ctx := context.Background()
	done := make(chan struct{})

	retried := newTestRecord()
	waiting := newTestRecord()

	q.Push(retried)
	q.Push(waiting)

	got, _ := q.Pop(ctx, done)
	if got != retried {
		t.Fatalf("Pop() = %s, want %s", got.ID(), retried.ID())
	}

	// Re-queue after a failed attempt: goes behind the waiting record.
	q.Push(retried)

	got, _ = q.Pop(ctx, done)
	if got != waiting {
		t.Errorf("Pop() = %s, want waiting record first", got.ID())
	}
	got, _ = q.Pop(ctx, done)
	if got != retried {
		t.Errorf("Pop() = %s, want retried record last", got.ID())
	}
}
