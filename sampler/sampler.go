// Package sampler implements a cancellable repeating timer on a looper.Scheduler.
package sampler

import (
	"time"

	"quietrec/looper"
)

// TickFunc receives the elapsed time and the 1-based tick index.
type TickFunc func(elapsed time.Duration, tick int)

// Sampler fires a TickFunc every interval until stopped. All methods and the
// TickFunc run on the scheduler's thread.
//
// Start must not be called while the sampler is running; callers Stop first.
type Sampler struct {
	sched    looper.Scheduler
	interval time.Duration
	fn       TickFunc

	elapsed time.Duration
	ticks   int
	cancel  looper.Cancel
}

func New(sched looper.Scheduler, interval time.Duration, fn TickFunc) *Sampler {
	return &Sampler{sched: sched, interval: interval, fn: fn}
}

// Start schedules the first tick one interval from now.
func (s *Sampler) Start() {
	s.cancel = s.sched.PostDelayed(s.interval, s.fire)
}

// Stop cancels the pending tick and resets the counters. No tick runs after
// Stop returns.
func (s *Sampler) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.elapsed = 0
	s.ticks = 0
}

func (s *Sampler) fire() {
	s.ticks++
	s.elapsed = time.Duration(s.ticks) * s.interval
	// Reschedule before the callback so a Stop inside fn cancels the next tick.
	s.cancel = s.sched.PostDelayed(s.interval, s.fire)
	s.fn(s.elapsed, s.ticks)
}

func (s *Sampler) Running() bool { return s.cancel != nil }
func (s *Sampler) Elapsed() time.Duration { return s.elapsed }
func (s *Sampler) Ticks() int { return s.ticks }
func (s *Sampler) Interval() time.Duration { return s.interval }
