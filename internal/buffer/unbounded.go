// Package buffer provides the unbounded queue behind conversation
// mailboxes.
package buffer

import (
	"sync"
)

// Unbounded provides non-blocking sends with unlimited buffering, so a
// chat adapter delivering messages never blocks on a fill that is busy
// between reads.
//
// Usage:
//
//	mailbox := buffer.NewUnbounded[*Message]()
//	go func() {
//	    for msg := range mailbox.Receive() {
//	        // Process msg
//	    }
//	}()
//	mailbox.Send(msg1) // Never blocks
//	mailbox.Send(msg2) // Never blocks
//	mailbox.Close()    // Closes the receive channel once drained
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	cond   *sync.Cond
	closed bool
	out    chan T
}

// NewUnbounded creates a new unbounded buffer.
// The returned buffer is ready to receive items via Send().
func NewUnbounded[T any]() *Unbounded[T] {
	b := &Unbounded[T]{
		items: make([]T, 0, 64),
		out:   make(chan T, 1),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.drainLoop()
	return b
}

// drainLoop continuously moves items from the internal queue to the
// output channel. It runs until the buffer is closed and all queued
// items are drained.
func (b *Unbounded[T]) drainLoop() {
	for {
		item, ok := b.dequeue()
		if !ok {
			close(b.out)
			return
		}
		b.out <- item
	}
}

// dequeue removes and returns the next item from the queue.
// It blocks until an item is available or the buffer is closed.
// Returns (item, true) if an item was dequeued, (zero, false) if closed and empty.
func (b *Unbounded[T]) dequeue() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.items) == 0 && !b.closed {
		b.cond.Wait()
	}

	if len(b.items) == 0 {
		var zero T
		return zero, false
	}

	item := b.items[0]
	b.items = b.items[1:]

	return item, true
}

// Send adds an item to the buffer. This method NEVER blocks.
// It's safe to call from any goroutine.
// Items sent after Close() are silently ignored.
func (b *Unbounded[T]) Send(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.items = append(b.items, item)
	b.cond.Signal()
}

// Receive returns a channel that receives items from the buffer.
// The channel is closed when Close() is called and all pending items are drained.
func (b *Unbounded[T]) Receive() <-chan T {
	return b.out
}

// Close marks the buffer as closed.
// After Close(), Send() calls are ignored and the Receive() channel will
// close once all pending items are drained.
// It's safe to call multiple times.
func (b *Unbounded[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	b.cond.Signal()
}

// Len returns the current number of queued items.
func (b *Unbounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
