package presence

import (
	"context"
	"sync"
)

// Queue is a user's outbound FIFO of encoded frames. It is unbounded: producers never
// block, and a slow client is bounded instead by its per-socket send buffer, which
// detaches the socket when it overflows.
type Queue struct {
	mu     sync.Mutex
	frames [][]byte
	ready  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends frame and wakes the consumer.
func (q *Queue) Push(frame []byte) {
	q.mu.Lock()
	q.frames = append(q.frames, frame)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes the oldest frame, waiting until one is available or ctx is done.
// A Queue supports a single consumer.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.frames) > 0 {
			f := q.frames[0]
			q.frames[0] = nil
			q.frames = q.frames[1:]
			q.mu.Unlock()
			return f, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of pending frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}
