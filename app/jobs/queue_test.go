package jobs

import (
	"context"
	"testing"
	"time"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := NewQueue(4)

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(id); err != nil {
			t.Fatalf("Expected push to succeed, got: %v", err)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		id, ok := q.Pop(context.Background())
		if !ok {
			t.Fatal("Expected pop to succeed")
		}
		if id != want {
			t.Errorf("Expected id %q, got: %q", want, id)
		}
	}
}

func TestQueuePushFull(t *testing.T) {
	q := NewQueue(1)

	if err := q.Push("a"); err != nil {
		t.Fatalf("Expected push to succeed, got: %v", err)
	}
	if err := q.Push("b"); err == nil {
		t.Error("Expected error pushing to a full queue")
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := NewQueue(4)
	q.Close()

	if err := q.Push("a"); err == nil {
		t.Error("Expected error pushing to a closed queue")
	}
}

func TestQueueCloseDrainsPending(t *testing.T) {
	q := NewQueue(4)
	q.Push("a")
	q.Close()

	id, ok := q.Pop(context.Background())
	if !ok || id != "a" {
		t.Errorf("Expected pending id drained after close, got: %q ok=%v", id, ok)
	}

	if _, ok := q.Pop(context.Background()); ok {
		t.Error("Expected ok=false once the closed queue is empty")
	}
}

func TestQueuePopContextCancelled(t *testing.T) {
	q := NewQueue(4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, ok := q.Pop(ctx); ok {
		t.Error("Expected ok=false on context cancellation")
	}
}

func TestQueueCloseIdempotent(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	q.Close()
}
