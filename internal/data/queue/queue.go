// Package queue buffers history writes between watch-mode re-analysis and
// the SQLite writer.
package queue

import (
	"codeinspector/internal/core/ports"
	"context"
	"io"
	"sync"
	"time"
)

var _ ports.WriteQueuePort = (*RunQueue)(nil)

// RunQueue is a bounded FIFO of pending history runs. When it is full the
// oldest run gives way to the newest, so a burst of edits never blocks the
// watcher and the latest state always reaches the store.
type RunQueue struct {
	mu       sync.Mutex
	pending  []ports.WriteRequest
	capacity int
	closed   bool
	evicted  int64

	// signal holds at most one wake-up for a waiting reader.
	signal chan struct{}
}

func NewRunQueue(capacity int) *RunQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &RunQueue{
		pending:  make([]ports.WriteRequest, 0, capacity),
		capacity: capacity,
		signal:   make(chan struct{}, 1),
	}
}

func (q *RunQueue) Enqueue(req ports.WriteRequest) ports.EnqueueResult {
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now().UTC()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ports.EnqueueDropped
	}
	result := ports.EnqueueAccepted
	if len(q.pending) == q.capacity {
		q.pending = append(q.pending[:0], q.pending[1:]...)
		q.evicted++
		result = ports.EnqueueEvicted
	}
	q.pending = append(q.pending, req)
	q.mu.Unlock()

	q.wake()
	return result
}

// DequeueBatch returns up to maxItems pending runs, oldest first. With
// nothing pending it waits up to wait for one to arrive and returns an
// empty batch on timeout. io.EOF marks a closed queue with nothing left.
func (q *RunQueue) DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]ports.WriteRequest, error) {
	if maxItems < 1 {
		maxItems = 1
	}
	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, closed := q.take(maxItems)
		if len(batch) > 0 {
			return batch, nil
		}
		if closed {
			return nil, io.EOF
		}
		if timeout == nil {
			return nil, nil
		}
		select {
		case <-q.signal:
		case <-timeout:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *RunQueue) take(maxItems int) ([]ports.WriteRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, q.closed
	}
	n := min(maxItems, len(q.pending))
	batch := make([]ports.WriteRequest, n)
	copy(batch, q.pending[:n])
	q.pending = append(q.pending[:0], q.pending[n:]...)
	return batch, q.closed
}

func (q *RunQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Close rejects further runs. Runs already queued can still be dequeued.
func (q *RunQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *RunQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Evicted counts runs discarded to make room for newer ones.
func (q *RunQueue) Evicted() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}
