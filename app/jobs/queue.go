package jobs

import (
	"context"
	"fmt"
	"sync"
)

// Queue is the in-process FIFO job queue. Entries carry only the job id; the
// worker loads the payload from storage after popping, which keeps queue
// latency independent of payload size. The producer side is guarded by a
// mutex held only for the duration of a single non-blocking push.
type Queue struct {
	mu     sync.Mutex
	ids    chan string
	closed bool
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{
		ids: make(chan string, size),
	}
}

// Push enqueues a job id without blocking. A full or closed queue is an
// error the caller must surface.
func (q *Queue) Push(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	select {
	case q.ids <- id:
		return nil
	default:
		return fmt.Errorf("queue is full")
	}
}

// Pop blocks until an id is available. It returns ok=false only when the
// queue has shut down or the context was cancelled.
func (q *Queue) Pop(ctx context.Context) (string, bool) {
	select {
	case id, ok := <-q.ids:
		return id, ok
	case <-ctx.Done():
		return "", false
	}
}

// Close shuts the queue down. Pending ids are still drained by consumers.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ids)
}
