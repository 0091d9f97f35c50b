// Package buffer provides the unbounded FIFO backing delta streams.
package buffer

import "sync"

// Unbounded is a FIFO with non-blocking sends. Producers never block waiting
// for consumers; consumers range over Receive().
//
// Close drains pending items to the consumer before closing the channel.
// Stop discards pending items and closes immediately - used when a consumer
// abandons a stream early and the leftovers are worthless.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	cond   *sync.Cond
	closed bool
	stop   chan struct{}
	once   sync.Once
	out    chan T
}

// NewUnbounded creates a buffer ready for sends.
func NewUnbounded[T any]() *Unbounded[T] {
	b := &Unbounded[T]{
		items: make([]T, 0, 16),
		stop:  make(chan struct{}),
		out:   make(chan T, 1),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.drain()
	return b
}

// Send enqueues an item. Never blocks. Items sent after Close or Stop are
// dropped.
func (b *Unbounded[T]) Send(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.items = append(b.items, item)
	b.cond.Signal()
}

// Receive returns the consumer channel. It closes once the buffer is closed
// and (unless stopped) all pending items have been delivered.
func (b *Unbounded[T]) Receive() <-chan T {
	return b.out
}

// Close stops accepting sends. Pending items are still delivered.
// Safe to call multiple times.
func (b *Unbounded[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Signal()
}

// Stop stops accepting sends and discards everything still queued, releasing
// the drain goroutine even when nobody is reading. Safe to call multiple
// times, and after Close.
func (b *Unbounded[T]) Stop() {
	b.mu.Lock()
	b.closed = true
	b.items = nil
	b.cond.Signal()
	b.mu.Unlock()
	b.once.Do(func() { close(b.stop) })
}

// Len reports the number of queued items. For tests.
func (b *Unbounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Unbounded[T]) drain() {
	for {
		item, ok := b.next()
		if !ok {
			close(b.out)
			return
		}
		select {
		case b.out <- item:
		case <-b.stop:
			close(b.out)
			return
		}
	}
}

// next blocks until an item is available or the buffer is finished.
func (b *Unbounded[T]) next() (T, bool) {
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
