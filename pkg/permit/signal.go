package permit

import "sync"

// Signal broadcasts state transitions to observational waiters. A waiter
// arms the current generation with C, checks its condition, then parks on
// the channel; Pulse closes the armed generation and replaces it. Arming
// before the check means a transition landing between the check and the
// park is never lost, at the cost of occasional spurious wakes (waiters
// re-check in a loop).
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewSignal creates a signal with an armed first generation.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// C returns the current generation. It is closed by the next Pulse.
func (s *Signal) C() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Pulse wakes every goroutine parked on the current generation and arms a
// new one. Pulsing with nobody parked is cheap and harmless.
func (s *Signal) Pulse() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}
