// Package clock provides the time source behind the simulator's busy-wait
// primitive and trace timestamps. Production code polls the monotonic wall
// clock; tests substitute a Stepping clock that advances instantly.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// Real reads time.Now, which carries a monotonic reading.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// DefaultStep is used by NewStepping when a non-positive step is given.
const DefaultStep = time.Millisecond

// Stepping is a deterministic fake clock. Every call to Now returns the
// current instant and then moves it forward by the configured step, so a
// polling loop always terminates without consuming real time.
type Stepping struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepping returns a Stepping clock anchored at start.
func NewStepping(start time.Time, step time.Duration) *Stepping {
	if step <= 0 {
		step = DefaultStep
	}
	return &Stepping{now: start, step: step}
}

func (s *Stepping) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now
	s.now = s.now.Add(s.step)
	return t
}

// Advance moves the clock forward by d without a Now call.
func (s *Stepping) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

// Spin polls c until at least d has elapsed since the first poll and returns
// the measured elapsed time. It never returns early and never sleeps.
func Spin(c Clock, d time.Duration) time.Duration {
	start := c.Now()
	elapsed := time.Duration(0)
	for elapsed < d {
		elapsed = c.Now().Sub(start)
	}
	return elapsed
}
