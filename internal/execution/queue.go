package execution

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO of execution records. Push never blocks, so
// signal producers are decoupled from the worker. Retried records re-enter
// at the tail.
type queue struct {
	mu    sync.Mutex
	items []*Record
	wake  chan struct{}
}

func newQueue() *queue {
	return &queue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends a record at the tail and wakes the consumer.
func (q *queue) Push(r *Record) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes the head record, blocking until one is available or the
// context/done channel fires.
func (q *queue) Pop(ctx context.Context, done <-chan struct{}) (*Record, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			r := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return r, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-done:
			return nil, false
		case <-q.wake:
		}
	}
}

// Len returns the current queue depth.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
