package common

import (
	"time"
)

// Clock returns the current time. Production code uses time.Now,
// tests provide their own
type Clock func() time.Time

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	startTime time.Time
	Running   bool
	clock     Clock
}

func NewStopwatch(timeout time.Duration, clock Clock) Stopwatch {
	if clock == nil {
		clock = time.Now
	}
	return Stopwatch{Timeout: timeout, clock: clock}
}

func (s *Stopwatch) Start() {
	s.StartAt(s.clock())
}

// Start counting from a moment already known by the caller
func (s *Stopwatch) StartAt(startTime time.Time) {
	s.Running = true
	s.startTime = startTime
}

func (s *Stopwatch) Stop() {
	s.Running = false
}

// Moment at which the timeout is reached
func (s *Stopwatch) Deadline() time.Time {
	return s.startTime.Add(s.Timeout)
}

// Return the time elapsed since this stopwatch
// stopped (reached its timeout).
// Note that if the number is negative, the timeout still
// has not been reached
func (s *Stopwatch) TimeStopped() time.Duration {
	return s.clock().Sub(s.Deadline())
}

// A stopwatch that never started counts as stopped
func (s *Stopwatch) Stopped() bool {
	if !s.Running {
		return true
	}
	return s.TimeStopped() >= 0
}
