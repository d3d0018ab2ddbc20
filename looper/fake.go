package looper

import (
	"sort"
	"time"
)

// FakeLoop is a Scheduler driven by simulated time. Nothing runs until the
// test calls Flush or Advance, and everything runs on the calling goroutine.
type FakeLoop struct {
	now   time.Duration
	seq   int
	tasks []*fakeTask
}

type fakeTask struct {
	due  time.Duration
	seq  int
	fn   func()
	dead bool
}

func NewFake() *FakeLoop {
	return &FakeLoop{}
}

// Now returns the simulated time elapsed since the loop was created.
func (f *FakeLoop) Now() time.Duration { return f.now }

func (f *FakeLoop) Post(fn func()) {
	f.PostDelayed(0, fn)
}

func (f *FakeLoop) PostDelayed(d time.Duration, fn func()) Cancel {
	f.seq++
	t := &fakeTask{due: f.now + d, seq: f.seq, fn: fn}
	f.tasks = append(f.tasks, t)
	return func() { t.dead = true }
}

// Pending reports how many live tasks are queued.
func (f *FakeLoop) Pending() int {
	n := 0
	for _, t := range f.tasks {
		if !t.dead {
			n++
		}
	}
	return n
}

// Flush runs every task that is due at the current simulated time.
func (f *FakeLoop) Flush() {
	f.Advance(0)
}

// Advance moves simulated time forward by d, running due tasks in order of
// due time and then post order. Tasks scheduled while advancing run too if
// they fall inside the window.
func (f *FakeLoop) Advance(d time.Duration) {
	target := f.now + d
	for {
		t := f.next(target)
		if t == nil {
			break
		}
		f.now = t.due
		t.dead = true
		t.fn()
	}
	f.now = target
	f.compact()
}

func (f *FakeLoop) next(target time.Duration) *fakeTask {
	f.compact()
	if len(f.tasks) == 0 {
		return nil
	}
	sort.SliceStable(f.tasks, func(i, j int) bool {
		if f.tasks[i].due != f.tasks[j].due {
			return f.tasks[i].due < f.tasks[j].due
		}
		return f.tasks[i].seq < f.tasks[j].seq
	})
	if f.tasks[0].due > target {
		return nil
	}
	return f.tasks[0]
}

func (f *FakeLoop) compact() {
	live := f.tasks[:0]
	for _, t := range f.tasks {
		if !t.dead {
			live = append(live, t)
		}
	}
	f.tasks = live
}
