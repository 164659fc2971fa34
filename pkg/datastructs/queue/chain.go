package queue

import (
	"runtime"
	"sync/atomic"

	pkgRuntime "github.com/huynhanx03/waitq/pkg/runtime"
)

var _ Queue[int] = (*Chain[int])(nil)

type chainNode[T any] struct {
	value T
	next  atomic.Pointer[chainNode[T]]
}

// Chain is a lock-free unbounded linked queue. head always points at a
// sentinel node; the sentinel's next is the front of the queue. Enqueue
// never fails, so Chain satisfies the Queue contract trivially on the
// full side.
type Chain[T any] struct {
	head atomic.Pointer[chainNode[T]] // Sentinel, dequeue side

	_ [cacheLineSize]byte // Padding to prevent false sharing

	tail atomic.Pointer[chainNode[T]] // Last node, enqueue side

	_ [cacheLineSize]byte // Padding to prevent false sharing

	size atomic.Int64
}

// NewChain creates an empty unbounded queue.
func NewChain[T any]() *Chain[T] {
	q := &Chain[T]{}
	sentinel := &chainNode[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Enqueue adds an item. It always returns true.
func (q *Chain[T]) Enqueue(item T) bool {
	n := &chainNode[T]{value: item}

	for spin := 0; ; spin++ {
		tail := q.tail.Load()
		next := tail.next.Load()

		if next != nil {
			// Tail is lagging behind a finished enqueue, help it along.
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.size.Add(1)
			return true
		}

		if spin < activeSpinTries {
			pkgRuntime.Procyield(activeSpinCycles)
		} else {
			runtime.Gosched()
			spin = 0
		}
	}
}

// Dequeue removes and returns the oldest item, or (zero, false) when the
// queue is empty.
func (q *Chain[T]) Dequeue() (T, bool) {
	var zero T

	for spin := 0; ; spin++ {
		head := q.head.Load()
		next := head.next.Load()

		if next == nil {
			return zero, false
		}

		if q.head.CompareAndSwap(head, next) {
			item := next.value
			next.value = zero // next is the new sentinel, drop its payload
			q.size.Add(-1)
			return item, true
		}

		if spin < activeSpinTries {
			pkgRuntime.Procyield(activeSpinCycles)
		} else {
			runtime.Gosched()
			spin = 0
		}
	}
}

// Len returns a size snapshot. Concurrent dequeues can momentarily drive the
// counter negative relative to an observer; such readings clamp to 0.
func (q *Chain[T]) Len() int {
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// IsEmpty returns true if the queue appears empty.
func (q *Chain[T]) IsEmpty() bool { return q.head.Load().next.Load() == nil }
