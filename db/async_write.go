package db

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultChannelCapacity is the default buffer size for queued writes.
const DefaultChannelCapacity = 256

// AsyncWriter hands items to a handler on one background goroutine so the
// request path never waits on SQLite. When the buffer is full Write reports
// false and the caller decides whether to write synchronously.
type AsyncWriter[T any] struct {
	items   chan T
	handler func(T) error
	onError func(T, error)

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool

	processed atomic.Int64
	failed    atomic.Int64
}

// NewAsyncWriter creates a writer with the given buffer capacity. onError
// may be nil; it is called from the background goroutine.
func NewAsyncWriter[T any](capacity int, handler func(T) error, onError func(T, error)) *AsyncWriter[T] {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	return &AsyncWriter[T]{
		items:   make(chan T, capacity),
		handler: handler,
		onError: onError,
	}
}

// Start begins background processing. Calling it twice is a no-op.
func (w *AsyncWriter[T]) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.closed {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.run()
}

func (w *AsyncWriter[T]) run() {
	defer w.wg.Done()

	// The loop ends when Stop closes the channel, after the buffer drains.
	for item := range w.items {
		if err := w.handler(item); err != nil {
			w.failed.Add(1)
			if w.onError != nil {
				w.onError(item, err)
			}
			continue
		}
		w.processed.Add(1)
	}
}

// Write queues item without blocking. It returns false if the writer is not
// running or the buffer is full.
func (w *AsyncWriter[T]) Write(item T) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started || w.closed {
		return false
	}

	select {
	case w.items <- item:
		return true
	default:
		return false
	}
}

// Pending returns the number of items waiting in the buffer.
func (w *AsyncWriter[T]) Pending() int {
	return len(w.items)
}

// Processed returns how many items the handler accepted.
func (w *AsyncWriter[T]) Processed() int64 {
	return w.processed.Load()
}

// Failed returns how many items the handler rejected.
func (w *AsyncWriter[T]) Failed() int64 {
	return w.failed.Load()
}

// Stop refuses further writes and waits up to timeout for the buffer to
// drain. Returns false if the timeout elapsed first.
func (w *AsyncWriter[T]) Stop(timeout time.Duration) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return true
	}
	w.closed = true
	started := w.started
	close(w.items)
	w.mu.Unlock()

	if !started {
		return true
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
