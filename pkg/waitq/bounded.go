package waitq

import (
	"context"

	"go.uber.org/atomic"

	"github.com/huynhanx03/waitq/pkg/datastructs/queue"
	"github.com/huynhanx03/waitq/pkg/permit"
)

// Bounded is a queue with a fixed capacity chosen at construction. Push
// suspends the calling goroutine while the queue is full; Pop suspends
// while it is empty.
//
// Capacity is enforced by the space counter, not by the ring: the ring only
// guarantees at least capacity slots.
type Bounded[T any] struct {
	items    *queue.MPMC[T]
	capacity int
	space    *permit.Counter // one permit per free slot
	ready    *permit.Counter // one permit per stored item
	empty    *permit.Signal
	full     *permit.Signal
	avail    atomic.Int64
}

// NewBounded creates an empty queue holding at most capacity items.
// capacity must be positive.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("waitq: capacity must be positive")
	}
	return &Bounded[T]{
		items:    queue.NewMPMC[T](capacity),
		capacity: capacity,
		space:    permit.NewCounter(capacity),
		ready:    permit.NewCounter(0),
		empty:    permit.NewSignal(),
		full:     permit.NewSignal(),
	}
}

// NewBoundedFrom creates a full queue whose capacity is exactly the number
// of given items. At least one item must be given.
func NewBoundedFrom[T any](items ...T) *Bounded[T] {
	if len(items) == 0 {
		panic("waitq: capacity must be positive")
	}
	q := &Bounded[T]{
		items:    queue.NewMPMC[T](len(items)),
		capacity: len(items),
		space:    permit.NewCounter(0),
		ready:    permit.NewCounter(len(items)),
		empty:    permit.NewSignal(),
		full:     permit.NewSignal(),
	}
	for _, item := range items {
		if !q.items.Enqueue(item) {
			panic("waitq: storage full under a space permit")
		}
	}
	q.avail.Store(int64(len(items)))
	return q
}

// Push adds an item, suspending until free capacity exists or ctx is done.
func (q *Bounded[T]) Push(ctx context.Context, item T) error {
	if err := q.space.Acquire(ctx); err != nil {
		return err
	}
	q.enqueue(item)
	return nil
}

// TryPush adds an item without blocking. It returns false when the queue is
// full; the caller keeps the item.
func (q *Bounded[T]) TryPush(item T) bool {
	if !q.space.TryAcquire() {
		return false
	}
	q.enqueue(item)
	return true
}

// enqueue commits an item under an already-held space permit.
func (q *Bounded[T]) enqueue(item T) {
	if !q.items.Enqueue(item) {
		panic("waitq: storage full under a space permit")
	}
	q.ready.Release(1)
	q.avail.Inc()
	if q.space.Count() == 0 {
		q.full.Pulse()
	}
}

// Pop removes and returns the oldest item, suspending until one is
// available or ctx is done. On cancellation the availability bookkeeping is
// rolled back and no claim is left behind.
func (q *Bounded[T]) Pop(ctx context.Context) (T, error) {
	var zero T

	q.avail.Dec()
	if err := q.ready.Acquire(ctx); err != nil {
		q.avail.Inc()
		return zero, err
	}
	return q.dequeue(), nil
}

// TryPop removes and returns the oldest item without blocking. It returns
// false when the queue is empty.
func (q *Bounded[T]) TryPop() (T, bool) {
	var zero T

	q.avail.Dec()
	if !q.ready.TryAcquire() {
		q.avail.Inc()
		return zero, false
	}
	return q.dequeue(), true
}

// dequeue removes an item under an already-held ready permit and returns
// the freed capacity to blocked pushers.
func (q *Bounded[T]) dequeue() T {
	item, ok := q.items.Dequeue()
	if !ok {
		panic("waitq: permit granted with no stored item")
	}
	q.space.Release(1)
	if q.ready.Count() == 0 {
		q.empty.Pulse()
	}
	return item
}

// Len returns the number of stored items. It may lag concurrent operations.
func (q *Bounded[T]) Len() int {
	return q.items.Len()
}

// Capacity returns the fixed capacity.
func (q *Bounded[T]) Capacity() int {
	return q.capacity
}

// IsEmpty returns true while no item is available to pop.
func (q *Bounded[T]) IsEmpty() bool {
	return q.ready.Count() == 0
}

// IsFull returns true while no free capacity is available to push.
func (q *Bounded[T]) IsFull() bool {
	return q.space.Count() == 0
}

// Available returns the stored item count minus the number of poppers
// currently waiting. A negative value is the number of unsatisfied poppers.
func (q *Bounded[T]) Available() int {
	return int(q.avail.Load())
}

// WaitEmpty suspends until the queue is observed empty or ctx is done.
// It consumes nothing and alters no state.
func (q *Bounded[T]) WaitEmpty(ctx context.Context) error {
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

// WaitFull suspends until the queue is observed full or ctx is done.
// It consumes nothing and alters no state.
func (q *Bounded[T]) WaitFull(ctx context.Context) error {
	for {
		ch := q.full.C()
		if q.space.Count() == 0 {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
