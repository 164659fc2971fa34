package permit

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// waiter parks one blocked Acquire call. ready is closed when a permit is
// handed over; abandoned is set under the counter lock when the call's
// context is cancelled before a grant.
type waiter struct {
	ready     chan struct{}
	abandoned bool
}

// Counter is an asynchronous counting signal: a semaphore whose blocked
// acquirers suspend their goroutine instead of spinning. Releases hand
// permits directly to parked waiters in FIFO order, so the count and the
// wait queue can never both be non-empty.
//
// It coordinates producers and consumers in pkg/waitq: a "ready" counter
// tracks items available to pop, a "space" counter tracks free capacity.
type Counter struct {
	mu        sync.Mutex
	count     int
	waiters   deque.Deque[*waiter]
	abandoned int // abandoned entries still parked in waiters
}

// NewCounter creates a counter holding n permits. Negative n clamps to 0.
func NewCounter(n int) *Counter {
	if n < 0 {
		n = 0
	}
	return &Counter{count: n}
}

// TryAcquire takes one permit without blocking. It returns false when none
// are available.
func (c *Counter) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		return false
	}
	c.count--
	return true
}

// TryAcquireUpTo takes up to n permits without blocking and returns how many
// it took. n <= 0 takes nothing.
func (c *Counter) TryAcquireUpTo(n int) int {
	if n <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	take := c.count
	if take > n {
		take = n
	}
	c.count -= take
	return take
}

// Acquire takes one permit, suspending the calling goroutine until one is
// granted or ctx is done. On cancellation it returns ctx.Err(); a permit
// granted concurrently with the cancellation is handed back to the counter,
// so cancellation never leaks a claim.
func (c *Counter) Acquire(ctx context.Context) error {
	done := ctx.Done()

	c.mu.Lock()
	select {
	case <-done:
		c.mu.Unlock()
		return ctx.Err()
	default:
	}

	if c.count > 0 {
		// count > 0 implies no waiter is parked, so taking the permit
		// here cannot overtake an earlier arrival.
		c.count--
		c.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	c.waiters.PushBack(w)
	c.mu.Unlock()

	select {
	case <-w.ready:
		select {
		case <-done:
			// Granted and cancelled at once: cancellation wins, hand
			// the permit back.
			c.mu.Lock()
			c.count++
			c.notifyLocked()
			c.mu.Unlock()
			return ctx.Err()
		default:
		}
		return nil

	case <-done:
		c.mu.Lock()
		select {
		case <-w.ready:
			// A release reached this waiter before the lock was
			// reacquired. Same rule: hand the permit back.
			c.count++
			c.notifyLocked()
		default:
			w.abandoned = true
			c.abandoned++
		}
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Release adds n permits and hands them to parked waiters in FIFO order.
// Release(0) is a no-op. Negative n is a programming error and panics.
func (c *Counter) Release(n int) {
	if n < 0 {
		panic("permit: negative release")
	}
	if n == 0 {
		return
	}

	c.mu.Lock()
	c.count += n
	c.notifyLocked()
	c.mu.Unlock()
}

// notifyLocked moves permits from the count to parked waiters until one of
// them runs out. Abandoned entries are dropped without consuming a permit.
// Callers must hold mu.
func (c *Counter) notifyLocked() {
	for c.count > 0 && c.waiters.Len() > 0 {
		w := c.waiters.PopFront()
		if w.abandoned {
			c.abandoned--
			continue
		}
		c.count--
		close(w.ready)
	}
	// Sweep abandoned entries stranded at the front so they do not pin
	// memory until the next grant.
	for c.waiters.Len() > 0 && c.waiters.Front().abandoned {
		c.waiters.PopFront()
		c.abandoned--
	}
}

// Count returns a snapshot of the held permits.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Waiting returns a snapshot of the number of parked acquirers.
func (c *Counter) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters.Len() - c.abandoned
}
