// Package looper provides the single logical thread the recorder runs on.
//
// Every timer tick, capture signal and state transition is a function posted to
// a Loop and executed one at a time, in order, on the Loop's goroutine. Code
// running on the loop never needs locks for state that only the loop touches.
package looper

import (
	"context"
	"sync"
	"time"
)

// Cancel removes a delayed function. It must be called on the loop thread and
// is safe to call more than once.
type Cancel func()

// Scheduler runs functions on a single logical thread.
type Scheduler interface {
	// Post queues fn to run on the loop thread.
	Post(fn func())
	// PostDelayed queues fn to run on the loop thread after d.
	PostDelayed(d time.Duration, fn func()) Cancel
}

const defaultQueueSize = 64

// Loop is a Scheduler backed by one goroutine draining a queue.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// New creates a Loop. Call Run to start processing.
func New() *Loop {
	return &Loop{
		queue: make(chan func(), defaultQueueSize),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is cancelled or Close is called.
// The loop is closed when Run returns, so later posts are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn. It returns without running fn if the loop has been closed.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// PostDelayed arms a timer that posts fn to the loop after d. The returned
// Cancel marks the task dead on the loop thread, so a timer that already fired
// and queued fn still does nothing.
func (l *Loop) PostDelayed(d time.Duration, fn func()) Cancel {
	var cancelled bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled {
				fn()
			}
		})
	})
	return func() {
		cancelled = true
		t.Stop()
	}
}

// Call runs fn on the loop and waits for it to finish. It must not be called
// from the loop thread.
func (l *Loop) Call(fn func()) {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
	case <-l.done:
	}
}

// Close stops Run and drops anything still queued.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
