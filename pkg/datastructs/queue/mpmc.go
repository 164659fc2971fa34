package queue

import (
	"math/bits"
	"runtime"
	"sync/atomic"

	pkgRuntime "github.com/huynhanx03/waitq/pkg/runtime"
)

var _ Queue[int] = (*MPMC[int])(nil)

const (
	cacheLineSize = 64

	// Spinning constants for Adaptive Spinning strategy.
	// Active spin: use PAUSE instruction (low power, keeps CPU warm).
	// Passive spin: yield to scheduler.
	activeSpinCycles = 4  // Number of PAUSE cycles per active spin iteration
	activeSpinTries  = 30 // Max active spin iterations before yielding
)

type slot[T any] struct {
	turn atomic.Uint64            // Turn number for producer/consumer
	data T                        // Data stored in the slot
	_    [cacheLineSize - 16]byte // Padding to prevent false sharing
}

// MPMC is a lock-free bounded multiple-producer multiple-consumer ring.
// Each slot carries a turn counter that alternates between "writable on
// lap k" (2k) and "readable on lap k" (2k+1), so producers and consumers
// claim slots without locking.
type MPMC[T any] struct {
	capacity uint64    // Slot count, always a power of two
	mask     uint64    // Mask for fast modulo
	shift    uint64    // Log2 of capacity, turns lap division into a shift
	slots    []slot[T] // Array of slots

	_ [cacheLineSize]byte // Padding to prevent false sharing

	head atomic.Uint64 // Enqueue cursor (claim count)

	_ [cacheLineSize]byte // Padding to prevent false sharing

	tail atomic.Uint64 // Dequeue cursor (claim count)
}

// NewMPMC creates a ring with at least the given capacity. The slot count
// is rounded up to a power of two; callers that need an exact limit must
// enforce it outside the ring.
func NewMPMC[T any](capacity int) *MPMC[T] {
	if capacity < 2 {
		capacity = 2
	}
	capacity = ceilPow2(capacity)

	return &MPMC[T]{
		capacity: uint64(capacity),
		mask:     uint64(capacity - 1),
		shift:    uint64(bits.TrailingZeros64(uint64(capacity))),
		slots:    make([]slot[T], capacity),
	}
}

func (q *MPMC[T]) idx(pos uint64) uint64 { return pos & q.mask }
func (q *MPMC[T]) lap(pos uint64) uint64 { return pos >> q.shift }

// Enqueue adds an item. It returns false only if the ring is linearizably
// full: a slot still held by an in-flight dequeue is spun through, not
// reported as full.
func (q *MPMC[T]) Enqueue(item T) bool {
	for spin := 0; ; spin++ {
		head := q.head.Load()
		idx := q.idx(head)
		turn := q.lap(head) * 2

		if q.slots[idx].turn.Load() == turn {
			if q.head.CompareAndSwap(head, head+1) {
				q.slots[idx].data = item
				q.slots[idx].turn.Store(turn + 1)
				return true
			}
		} else if q.tail.Load()+q.capacity == head {
			// The dequeue that recycles this slot has not even been
			// claimed yet: every slot holds a committed item.
			return false
		}

		if spin < activeSpinTries {
			pkgRuntime.Procyield(activeSpinCycles)
		} else {
			runtime.Gosched()
			spin = 0
		}
	}
}

// Dequeue removes and returns the oldest item. It returns false only if the
// ring is linearizably empty: a slot claimed by an in-flight enqueue is spun
// through, not reported as empty.
func (q *MPMC[T]) Dequeue() (T, bool) {
	var zero T

	for spin := 0; ; spin++ {
		tail := q.tail.Load()
		idx := q.idx(tail)
		turn := q.lap(tail)*2 + 1

		if q.slots[idx].turn.Load() == turn {
			if q.tail.CompareAndSwap(tail, tail+1) {
				data := q.slots[idx].data
				q.slots[idx].data = zero
				q.slots[idx].turn.Store(turn + 1)
				return data, true
			}
		} else if q.head.Load() == tail {
			// No enqueue has claimed this position: nothing is
			// committed or in flight.
			return zero, false
		}

		// Adaptive Spinning: Active spin first, then yield.
		if spin < activeSpinTries {
			pkgRuntime.Procyield(activeSpinCycles)
		} else {
			runtime.Gosched()
			spin = 0
		}
	}
}

// Len returns a size snapshot. Concurrent claims can make the raw cursor
// difference dip below zero; such readings clamp to 0.
func (q *MPMC[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail >= head {
		return 0
	}
	return int(head - tail)
}

// IsEmpty returns true if the ring appears empty.
func (q *MPMC[T]) IsEmpty() bool { return q.Len() == 0 }

// IsFull returns true if the ring appears full.
func (q *MPMC[T]) IsFull() bool { return q.Len() >= int(q.capacity) }

// Capacity returns the slot count (a power of two, >= the requested size).
func (q *MPMC[T]) Capacity() int { return int(q.capacity) }

// ceilPow2 rounds n up to the next power of two.
func ceilPow2(n int) int {
	if n <= 2 {
		return 2
	}
	if n&(n-1) == 0 {
		return n
	}
	shift := bits.Len(uint(n))
	if shift >= bits.UintSize-1 {
		panic("queue: capacity overflow")
	}
	return 1 << shift
}
