package permit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignal_PulseWakesArmedWaiter(t *testing.T) {
	s := NewSignal()
	ch := s.C()

	woke := make(chan struct{})
	go func() {
		<-ch
		close(woke)
	}()

	s.Pulse()

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("pulse did not wake the armed waiter")
	}
}

func TestSignal_PulseIsBroadcast(t *testing.T) {
	s := NewSignal()
	ch := s.C()

	const n = 5
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-ch
		}()
	}

	s.Pulse()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pulse did not wake every parked waiter")
	}
}

func TestSignal_GenerationsAreDistinct(t *testing.T) {
	s := NewSignal()
	first := s.C()
	s.Pulse()
	second := s.C()

	if first == second {
		t.Fatal("pulse should arm a fresh generation")
	}

	select {
	case <-first:
	default:
		t.Fatal("pulsed generation should be closed")
	}
	select {
	case <-second:
		t.Fatal("new generation should still be open")
	default:
	}
}

func TestSignal_ArmBeforeCheckLosesNoPulse(t *testing.T) {
	// The wait-loop pattern arms the signal, checks a condition, then
	// parks. A pulse landing between the arm and the park must still be
	// visible on the armed channel.
	s := NewSignal()
	ch := s.C()

	s.Pulse()

	select {
	case <-ch:
	default:
		t.Fatal("pulse between arm and park was lost")
	}
}

func TestSignal_RepeatedPulses(t *testing.T) {
	s := NewSignal()

	for i := 0; i < 100; i++ {
		ch := s.C()
		s.Pulse()
		select {
		case <-ch:
		default:
			t.Fatalf("generation %d not closed by its pulse", i)
		}
	}
	assert.NotNil(t, s.C())
}
