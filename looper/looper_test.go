package looper

import (
	"context"
	"testing"
	"time"
)

func TestFakeRunsInDueOrder(t *testing.T) {
	f := NewFake()
	var got []int
	f.PostDelayed(30*time.Millisecond, func() { got = append(got, 3) })
	f.PostDelayed(10*time.Millisecond, func() { got = append(got, 1) })
	f.PostDelayed(10*time.Millisecond, func() { got = append(got, 2) })

	f.Advance(20 * time.Millisecond)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("after 20ms got %v, want [1 2]", got)
	}
	f.Advance(10 * time.Millisecond)
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("after 30ms got %v, want [1 2 3]", got)
	}
	if f.Now() != 30*time.Millisecond {
		t.Errorf("Now = %v, want 30ms", f.Now())
	}
}

func TestFakeCancel(t *testing.T) {
	f := NewFake()
	ran := false
	cancel := f.PostDelayed(time.Millisecond, func() { ran = true })
	cancel()
	cancel()
	f.Advance(time.Second)
	if ran {
		t.Fatal("cancelled task ran")
	}
	if f.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", f.Pending())
	}
}

func TestFakeRunsTasksScheduledDuringAdvance(t *testing.T) {
	f := NewFake()
	count := 0
	var step func()
	step = func() {
		count++
		f.PostDelayed(10*time.Millisecond, step)
	}
	f.PostDelayed(10*time.Millisecond, step)
	f.Advance(55 * time.Millisecond)
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
}

func TestLoopSerializesPosts(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	defer l.Close()

	var got []int
	for i := 0; i < 10; i++ {
		l.Post(func() { got = append(got, i) })
	}
	l.Call(func() {})
	if len(got) != 10 {
		t.Fatalf("got %d posts, want 10", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("post %d ran as %d", i, v)
		}
	}
}

func TestLoopCancelDelayed(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	defer l.Close()

	fired := make(chan struct{}, 1)
	var stop Cancel
	l.Call(func() {
		stop = l.PostDelayed(20*time.Millisecond, func() { fired <- struct{}{} })
	})
	l.Call(func() { stop() })

	select {
	case <-fired:
		t.Fatal("cancelled delayed task fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestLoopDelayedFires(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	defer l.Close()

	fired := make(chan struct{})
	l.PostDelayed(5*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("delayed task never fired")
	}
}

func TestPostAfterCloseDoesNotBlock(t *testing.T) {
	l := New()
	l.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultQueueSize*2; i++ {
			l.Post(func() {})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked after Close")
	}
}

func TestPostAfterRunReturnsDoesNotBlock(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(returned)
	}()
	cancel()
	<-returned

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultQueueSize*2; i++ {
			l.Post(func() {})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked after Run returned")
	}
}
