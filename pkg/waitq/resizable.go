package waitq

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/huynhanx03/waitq/pkg/permit"
)

// Resizable is a bounded queue whose capacity can be changed at runtime. It
// composes an Unbounded queue with a space counter that meters pushes, so
// items never move during a resize.
//
// Shrinking below the current occupancy leaves the queue transiently over
// capacity: the shortfall is recorded as debt and repaid by pops before any
// freed slot reaches a blocked pusher.
type Resizable[T any] struct {
	inner    *Unbounded[T]
	capacity atomic.Int64
	debt     atomic.Int64    // space permits owed from shrinks, repaid by pops
	space    *permit.Counter // one permit per free slot
	full     *permit.Signal
	resizeMu sync.Mutex // serializes Resize; pushes and pops never take it
}

// NewResizable creates an empty queue holding at most capacity items.
// Capacity zero is allowed: every push parks until a grow. Negative
// capacity panics.
func NewResizable[T any](capacity int) *Resizable[T] {
	if capacity < 0 {
		panic("waitq: capacity must not be negative")
	}
	q := &Resizable[T]{
		inner: NewUnbounded[T](),
		space: permit.NewCounter(capacity),
		full:  permit.NewSignal(),
	}
	q.capacity.Store(int64(capacity))
	return q
}

// NewResizableFrom creates a full queue whose capacity is exactly the
// number of given items.
func NewResizableFrom[T any](items ...T) *Resizable[T] {
	q := &Resizable[T]{
		inner: NewUnboundedFrom(items...),
		space: permit.NewCounter(0),
		full:  permit.NewSignal(),
	}
	q.capacity.Store(int64(len(items)))
	return q
}

// Push adds an item, suspending until free capacity exists or ctx is done.
func (q *Resizable[T]) Push(ctx context.Context, item T) error {
	if err := q.space.Acquire(ctx); err != nil {
		return err
	}
	q.inner.Push(item)
	if q.space.Count() == 0 {
		q.full.Pulse()
	}
	return nil
}

// TryPush adds an item without blocking. It returns false when the queue is
// full; the caller keeps the item.
func (q *Resizable[T]) TryPush(item T) bool {
	if !q.space.TryAcquire() {
		return false
	}
	q.inner.Push(item)
	if q.space.Count() == 0 {
		q.full.Pulse()
	}
	return true
}

// Pop removes and returns the oldest item, suspending until one is
// available or ctx is done. The freed slot repays shrink debt before it is
// offered to blocked pushers.
func (q *Resizable[T]) Pop(ctx context.Context) (T, error) {
	item, err := q.inner.Pop(ctx)
	if err != nil {
		return item, err
	}
	q.creditSpace(1)
	return item, nil
}

// TryPop removes and returns the oldest item without blocking. It returns
// false when the queue is empty.
func (q *Resizable[T]) TryPop() (T, bool) {
	item, ok := q.inner.TryPop()
	if !ok {
		return item, false
	}
	q.creditSpace(1)
	return item, true
}

// creditSpace returns n capacity credits: outstanding shrink debt absorbs
// them first, the remainder becomes space permits.
func (q *Resizable[T]) creditSpace(n int64) {
	for n > 0 {
		owed := q.debt.Load()
		if owed == 0 {
			break
		}
		repay := owed
		if repay > n {
			repay = n
		}
		if q.debt.CompareAndSwap(owed, owed-repay) {
			n -= repay
		}
	}
	if n > 0 {
		q.space.Release(int(n))
	}
}

// Resize changes the capacity. It never blocks and never disturbs stored
// items. Growing releases the new capacity to blocked pushers immediately;
// shrinking takes only the free capacity that exists right now and records
// the rest as debt. Negative capacity clamps to zero.
func (q *Resizable[T]) Resize(capacity int) {
	if capacity < 0 {
		capacity = 0
	}

	q.resizeMu.Lock()
	defer q.resizeMu.Unlock()

	old := int(q.capacity.Load())
	switch {
	case capacity > old:
		q.capacity.Store(int64(capacity))
		q.creditSpace(int64(capacity - old))
	case capacity < old:
		diff := old - capacity
		taken := q.space.TryAcquireUpTo(diff)
		if taken < diff {
			q.debt.Add(int64(diff - taken))
		}
		q.capacity.Store(int64(capacity))
		if q.space.Count() == 0 {
			q.full.Pulse()
		}
	}
}

// Len returns the number of stored items. It may lag concurrent operations.
func (q *Resizable[T]) Len() int {
	return q.inner.Len()
}

// Capacity returns the current capacity.
func (q *Resizable[T]) Capacity() int {
	return int(q.capacity.Load())
}

// IsEmpty returns true while no item is available to pop.
func (q *Resizable[T]) IsEmpty() bool {
	return q.inner.IsEmpty()
}

// IsFull returns true while no free capacity is available to push. A queue
// left over capacity by a shrink reports full until pops repay the debt.
func (q *Resizable[T]) IsFull() bool {
	return q.space.Count() == 0
}

// Available returns the stored item count minus the number of poppers
// currently waiting. A negative value is the number of unsatisfied poppers.
func (q *Resizable[T]) Available() int {
	return q.inner.Available()
}

// WaitEmpty suspends until the queue is observed empty or ctx is done.
// It consumes nothing and alters no state.
func (q *Resizable[T]) WaitEmpty(ctx context.Context) error {
	return q.inner.WaitEmpty(ctx)
}

// WaitFull suspends until the queue is observed full or ctx is done.
// It consumes nothing and alters no state.
func (q *Resizable[T]) WaitFull(ctx context.Context) error {
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
