package node

import "sync"

// frameQueue is a thread-safe FIFO queue of inbound replication frames.
//
// The queue is unbounded: a full network burst can be enqueued without
// blocking the link reader. Thread-safety covers external enqueuing
// (link readers, tests) while the node's Run loop dequeues.
//
// A buffered signal channel enables context-aware waiting in the Run
// loop; the channel closes when the queue closes, waking all waiters.
type frameQueue struct {
	mu     sync.Mutex
	frames []string
	closed bool
	signal chan struct{}
}

func newFrameQueue() *frameQueue {
	return &frameQueue{
		frames: make([]string, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a frame to the back of the queue.
// Returns false if the queue is closed.
func (q *frameQueue) Enqueue(frame string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.frames = append(q.frames, frame)

	// Non-blocking signal; the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns ("", false) if the queue is empty.
func (q *frameQueue) TryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return "", false
	}

	f := q.frames[0]
	q.frames[0] = ""

	if len(q.frames) == 1 {
		// Last element: reset to empty slice keeping the capacity.
		q.frames = q.frames[:0]
	} else {
		q.frames = q.frames[1:]
	}

	return f, true
}

// Wait returns a channel that signals when frames may be available.
func (q *frameQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *frameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Close signals that no more frames will be enqueued and wakes any
// blocked waiters.
func (q *frameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
