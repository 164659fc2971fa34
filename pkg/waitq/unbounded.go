// Package waitq provides concurrent FIFO queues that coordinate producers
// and consumers with permit counters: consumers suspend until an item is
// ready, and bounded variants apply backpressure by suspending producers
// until capacity is free. A single queue value is safe for any number of
// concurrent pushers and poppers.
package waitq

import (
	"context"

	"go.uber.org/atomic"

	"github.com/huynhanx03/waitq/pkg/datastructs/queue"
	"github.com/huynhanx03/waitq/pkg/permit"
)

// Unbounded is a queue with no capacity limit. Push never blocks and never
// fails; Pop suspends the calling goroutine until an item is available.
type Unbounded[T any] struct {
	items *queue.Chain[T]
	ready *permit.Counter // one permit per stored item
	empty *permit.Signal  // pulsed when a pop observes the ready count at zero
	avail atomic.Int64    // items minus waiting poppers, may go negative
}

// NewUnbounded creates an empty unbounded queue.
func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{
		items: queue.NewChain[T](),
		ready: permit.NewCounter(0),
		empty: permit.NewSignal(),
	}
}

// NewUnboundedFrom creates an unbounded queue holding the given items in
// order.
func NewUnboundedFrom[T any](items ...T) *Unbounded[T] {
	q := &Unbounded[T]{
		items: queue.NewChain[T](),
		ready: permit.NewCounter(len(items)),
		empty: permit.NewSignal(),
	}
	for _, item := range items {
		q.items.Enqueue(item)
	}
	q.avail.Store(int64(len(items)))
	return q
}

// Push adds an item. The ready permit is released strictly after the item
// is stored, so a woken popper always finds its item committed.
func (q *Unbounded[T]) Push(item T) {
	q.items.Enqueue(item)
	q.ready.Release(1)
	q.avail.Inc()
}

// TryPush adds an item without blocking. It always succeeds and exists for
// symmetry with the bounded variants.
func (q *Unbounded[T]) TryPush(item T) bool {
	q.Push(item)
	return true
}

// Pop removes and returns the oldest item, suspending until one is
// available or ctx is done. On cancellation the availability bookkeeping is
// rolled back and no claim is left behind.
func (q *Unbounded[T]) Pop(ctx context.Context) (T, error) {
	var zero T

	q.avail.Dec()
	if err := q.ready.Acquire(ctx); err != nil {
		q.avail.Inc()
		return zero, err
	}

	item, ok := q.items.Dequeue()
	if !ok {
		panic("waitq: permit granted with no stored item")
	}
	if q.ready.Count() == 0 {
		q.empty.Pulse()
	}
	return item, nil
}

// TryPop removes and returns the oldest item without blocking. It returns
// false when the queue is empty.
func (q *Unbounded[T]) TryPop() (T, bool) {
	var zero T

	q.avail.Dec()
	if !q.ready.TryAcquire() {
		q.avail.Inc()
		return zero, false
	}

	item, ok := q.items.Dequeue()
	if !ok {
		panic("waitq: permit granted with no stored item")
	}
	if q.ready.Count() == 0 {
		q.empty.Pulse()
	}
	return item, true
}

// Len returns the number of stored items. It may lag concurrent operations.
func (q *Unbounded[T]) Len() int {
	return q.items.Len()
}

// IsEmpty returns true while no item is available to pop.
func (q *Unbounded[T]) IsEmpty() bool {
	return q.ready.Count() == 0
}

// Available returns the stored item count minus the number of poppers
// currently waiting. A negative value is the number of unsatisfied poppers.
func (q *Unbounded[T]) Available() int {
	return int(q.avail.Load())
}

// WaitEmpty suspends until the queue is observed empty or ctx is done. It
// consumes nothing and alters no state; the condition may no longer hold by
// the time the caller reacts.
func (q *Unbounded[T]) WaitEmpty(ctx context.Context) error {
	for {
		ch := q.empty.C()
		if q.ready.Count() == 0 {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
