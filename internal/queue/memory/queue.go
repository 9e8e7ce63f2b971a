// Package memory provides the channel-backed target queue one round drains.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Queue is a bounded in-memory queue with context-aware operations. Once
// closed, Dequeue keeps handing out the remaining targets and then reports
// crawler.ErrQueueDrained.
type Queue struct {
	ch      chan crawler.Target
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan crawler.Target, capacity),
	}
}

// Load fills a queue with targets and closes it, ready for workers to drain.
func Load(targets []crawler.Target) *Queue {
	q := NewQueue(len(targets))
	for _, target := range targets {
		q.ch <- target
	}
	q.Close()
	return q
}

// Enqueue pushes a target into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, target crawler.Target) error {
	// Held across the send so Close cannot close the channel underneath it.
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return fmt.Errorf("enqueue: %w", crawler.ErrQueueDrained)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- target:
		return nil
	}
}

// Dequeue claims the next target, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (crawler.Target, error) {
	select {
	case <-ctx.Done():
		return crawler.Target{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case target, ok := <-q.ch:
		if !ok {
			return crawler.Target{}, crawler.ErrQueueDrained
		}
		return target, nil
	}
}

// Len reports how many targets are still unclaimed.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops further enqueues. Already queued targets stay claimable.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
