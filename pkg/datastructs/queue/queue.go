package queue

// Queue is the storage contract shared by the containers in this package.
// The blocking layer in pkg/waitq coordinates access with permit counters
// and relies on the strengthened failure semantics below: a false return
// must mean the container was linearizably full (or empty) at some point
// during the call, never that a neighboring operation was merely in flight.
type Queue[T any] interface {
	// Enqueue adds an item.
	// Returns false only if the queue is linearizably full.
	Enqueue(item T) bool

	// Dequeue removes and returns the oldest item.
	// Returns (zero, false) only if the queue is linearizably empty.
	Dequeue() (T, bool)

	// Len returns a size snapshot. It may lag concurrent operations.
	Len() int
}
