package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"quietrec/audio"
	"quietrec/beep"
	"quietrec/clipboard"
	"quietrec/config"
	"quietrec/log"
	"quietrec/looper"
	"quietrec/recorder"
)

// EventSink abstracts the display layer so the TUI and the plain console
// output receive the same session events.
type EventSink interface {
	Status(ev recorder.Event)
	Tick(ti recorder.TickInfo)
	Level(level float64)
	Saved(path string, reason recorder.StopReason, recorded time.Duration, copied bool)
}

// app ties a recording controller to logging, cues and a display. Everything
// except level updates runs on the loop thread.
type app struct {
	cfg  *config.Config
	mic  *audio.Microphone
	ctrl *recorder.Controller
	sink EventSink
	now  func() time.Time

	lastPath string

	// Sessions seen and sessions stopped, for test-mode WAIT.
	lastID  string
	begun   int
	ended   int
	waiters []stopWaiter
}

type stopWaiter struct {
	target int
	ch     chan struct{}
}

func newApp(cfg *config.Config, loop looper.Scheduler, mic *audio.Microphone, sink EventSink) *app {
	a := &app{
		cfg:  cfg,
		mic:  mic,
		sink: sink,
		now:  time.Now,
	}
	a.ctrl = recorder.New(loop, mic, cfg.Recorder(),
		recorder.WithObserver(a.onEvent),
		recorder.WithTickObserver(a.onTick),
	)
	return a
}

func (a *app) begin() {
	if err := a.ctrl.BeginSession(a.cfg.NextDestination(a.now())); err != nil && !errors.Is(err, recorder.ErrCaptureUnavailable) {
		log.Warnf("begin session: %v", err)
	}
}

func (a *app) end() {
	if err := a.ctrl.EndSession(); err != nil {
		log.Warnf("end session: %v", err)
	}
}

func (a *app) toggle() {
	if a.ctrl.State().Active() {
		a.end()
		return
	}
	a.begin()
}

// shutdown ends an active session so the file is finalized.
func (a *app) shutdown() {
	if a.ctrl.State().Active() {
		a.end()
	}
}

func (a *app) onEvent(ev recorder.Event) {
	s := ev.Session
	if s.ID != a.lastID {
		a.lastID = s.ID
		a.begun++
	}
	a.sink.Status(ev)
	switch ev.Status {
	case recorder.StatusCalibrating:
		log.SessionStart(s.ID, s.Destination, a.mic.DeviceName())
		beep.PlayCalibrate()
	case recorder.StatusRecording:
		log.Calibration(s.ID, s.Baseline, s.Samples, a.cfg.BaselineReduction, true)
		beep.PlayStart()
	case recorder.StatusTooNoisy:
		log.Calibration(s.ID, s.Baseline, s.Samples, a.cfg.BaselineReduction, false)
		beep.PlayError()
	case recorder.StatusStopped:
		a.stopped(ev)
		a.ended++
		a.releaseWaiters()
	}
}

// sessionsStopped returns a channel that closes once every session begun so
// far has stopped. Call it on the loop thread.
func (a *app) sessionsStopped() <-chan struct{} {
	ch := make(chan struct{})
	if a.ended >= a.begun {
		close(ch)
		return ch
	}
	a.waiters = append(a.waiters, stopWaiter{target: a.begun, ch: ch})
	return ch
}

func (a *app) releaseWaiters() {
	kept := a.waiters[:0]
	for _, w := range a.waiters {
		if a.ended >= w.target {
			close(w.ch)
			continue
		}
		kept = append(kept, w)
	}
	a.waiters = kept
}

func (a *app) stopped(ev recorder.Event) {
	s := ev.Session
	log.SessionEnd(s.ID, ev.Reason.String(), s.Elapsed, s.Ticks)
	if ev.Err != nil && !errors.Is(ev.Err, recorder.ErrTooNoisy) {
		log.Errorf("session %s: %v", s.ID, ev.Err)
	}
	if ev.Reason == recorder.ReasonCaptureUnavailable {
		beep.PlayError()
		return
	}
	if ev.Reason != recorder.ReasonTooNoisy {
		beep.PlayEnd()
	}

	recorded := a.mic.Recorded()
	a.lastPath = s.Destination
	log.Recording(s.Destination, ev.Reason.String(), recorded)

	copied := false
	if a.cfg.CopyPath {
		if err := clipboard.Copy(s.Destination); err != nil {
			log.Warnf("copy path: %v", err)
		} else {
			copied = true
		}
	}
	a.sink.Saved(s.Destination, ev.Reason, recorded, copied)
}

func (a *app) onTick(ti recorder.TickInfo) {
	if ti.Checked {
		s, _ := a.ctrl.Session()
		log.SilenceCheck(s.ID, ti.Tick, ti.BatchPeak, ti.Baseline, ti.Silent)
	}
	a.sink.Tick(ti)
}

// LastRecording is the path of the most recent saved file, if any.
func (a *app) LastRecording() string { return a.lastPath }

// consoleSink prints one line per event. The format is stable so scripts
// driving test mode can match on it.
type consoleSink struct {
	w io.Writer
}

func (c consoleSink) Status(ev recorder.Event) {
	switch ev.Status {
	case recorder.StatusRecording:
		fmt.Fprintf(c.w, "STATUS %s baseline=%d\n", ev.Status, ev.Session.Baseline)
	case recorder.StatusStopped:
		line := fmt.Sprintf("STATUS %s reason=%s", ev.Status, ev.Reason)
		if ev.Err != nil {
			line += fmt.Sprintf(" err=%q", ev.Err.Error())
		}
		fmt.Fprintln(c.w, line)
	default:
		fmt.Fprintf(c.w, "STATUS %s\n", ev.Status)
	}
	if msg := ev.Status.Message(); msg != "" && ev.Status != recorder.StatusStopped {
		fmt.Fprintf(c.w, "MESSAGE %s\n", msg)
	}
}

func (c consoleSink) Tick(ti recorder.TickInfo) {
	if ti.Checked {
		fmt.Fprintf(c.w, "CHECK tick=%d peak=%d baseline=%d silent=%t\n", ti.Tick, ti.BatchPeak, ti.Baseline, ti.Silent)
	}
}

func (c consoleSink) Level(float64) {}

func (c consoleSink) Saved(path string, reason recorder.StopReason, recorded time.Duration, copied bool) {
	fmt.Fprintf(c.w, "SAVED %s reason=%s duration=%.1fs copied=%t\n", path, reason, recorded.Seconds(), copied)
}
