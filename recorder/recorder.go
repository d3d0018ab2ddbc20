// Package recorder runs a voice-activated recording session: calibrate to the
// room, record, and stop on silence, on the capture's duration cap, or on
// request.
//
// A Controller is not safe for concurrent use. Every method must be called on
// the thread of the looper.Scheduler it was built with.
package recorder

import (
	"fmt"
	"slices"
	"time"

	"quietrec/calibration"
	"quietrec/looper"
	"quietrec/sampler"
	"quietrec/silence"
)

// Capture is the microphone as seen by the controller. The controller is its
// only owner; calibration and detection only read amplitude through it.
type Capture interface {
	calibration.AmplitudeReader
	Start(destination string) error
	Stop() error
	Release()
	// OnMaxDuration registers fn to be called once the capture's hard cap is
	// reached. fn may be called from any goroutine.
	OnMaxDuration(fn func())
}

type Config struct {
	Calibration       calibration.Config
	RecordingInterval time.Duration
	BatchSize         int // 1 checks every tick
}

// TickInfo describes one recording tick for observers that track progress.
type TickInfo struct {
	Elapsed   time.Duration
	Tick      int
	Amplitude int
	Present   bool
	Baseline  int

	// Checked is set on ticks that closed a non-empty batch.
	Checked   bool
	BatchPeak int
	Silent    bool
}

type Option func(*Controller)

// WithObserver receives every status change.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) { c.observe = fn }
}

// WithTickObserver receives every recording tick.
func WithTickObserver(fn func(TickInfo)) Option {
	return func(c *Controller) { c.onTick = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type Controller struct {
	sched   looper.Scheduler
	capture Capture
	cfg     Config
	observe func(Event)
	onTick  func(TickInfo)
	now     func() time.Time

	state    State
	reason   StopReason
	session  *Session
	epoch    int
	window   *calibration.Window
	sampler  *sampler.Sampler
	detector *silence.Detector
}

func New(sched looper.Scheduler, capture Capture, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		sched:   sched,
		capture: capture,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.window = calibration.NewWindow(sched, capture, cfg.Calibration, c.calibrated)
	c.sampler = sampler.New(sched, cfg.RecordingInterval, c.tick)
	return c
}

// BeginSession starts capture into destination and begins calibrating. Capture
// starts first so the microphone is live for the first calibration tick.
func (c *Controller) BeginSession(destination string) error {
	if c.state.Active() {
		return ErrSessionActive
	}
	c.epoch++
	epoch := c.epoch
	c.session = newSession(destination, c.now())
	c.reason = ReasonNone
	c.detector = nil

	c.capture.OnMaxDuration(func() {
		c.sched.Post(func() { c.maxDurationReached(epoch) })
	})
	if err := c.capture.Start(destination); err != nil {
		err = fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
		c.capture.Release()
		c.finish(ReasonCaptureUnavailable, err)
		return err
	}

	c.state = StateCalibrating
	c.emit(StatusCalibrating, nil)
	c.window.Start()
	return nil
}

// EndSession is the manual stop.
func (c *Controller) EndSession() error {
	if !c.state.Active() {
		return ErrNotRecording
	}
	c.stop(ReasonUser, nil)
	return nil
}

// Toggle ends the active session, or begins one into destination.
func (c *Controller) Toggle(destination string) error {
	if c.state.Active() {
		return c.EndSession()
	}
	return c.BeginSession(destination)
}

func (c *Controller) State() State { return c.state }

// LastReason is why the most recent session ended.
func (c *Controller) LastReason() StopReason { return c.reason }

// Session returns a copy of the current or most recent session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return c.snapshot(), true
}

func (c *Controller) calibrated(r calibration.Result) {
	if c.state != StateCalibrating {
		return
	}
	c.session.Baseline = r.Baseline
	c.session.Samples = r.Samples
	if !r.Proceed {
		c.emit(StatusTooNoisy, nil)
		c.stop(ReasonTooNoisy, ErrTooNoisy)
		return
	}
	c.detector = silence.NewDetector(r.Baseline, c.cfg.BatchSize)
	c.state = StateRecording
	c.emit(StatusRecording, nil)
	c.sampler.Start()
}

func (c *Controller) tick(elapsed time.Duration, tick int) {
	if c.state != StateRecording {
		return
	}
	amp, ok := c.capture.PeakAmplitude()
	c.session.Elapsed = elapsed
	c.session.Ticks = tick
	before := c.detector.Evaluated()
	ev := c.detector.Tick(tick, amp, ok)
	if c.onTick != nil {
		ti := TickInfo{
			Elapsed:   elapsed,
			Tick:      tick,
			Amplitude: amp,
			Present:   ok,
			Baseline:  c.session.Baseline,
			Checked:   c.detector.Evaluated() != before,
			Silent:    ev == silence.EventSilence,
		}
		if ti.Checked {
			ti.BatchPeak = c.detector.LastPeak()
		}
		c.onTick(ti)
	}
	if ev == silence.EventSilence {
		c.session.Peak = c.detector.LastPeak()
		c.emit(StatusSilenceDetected, nil)
		c.stop(ReasonSilence, nil)
	}
}

// maxDurationReached preempts any detector state. Signals from an earlier
// session are ignored.
func (c *Controller) maxDurationReached(epoch int) {
	if epoch != c.epoch || !c.state.Active() {
		return
	}
	c.emit(StatusMaxDurationReached, nil)
	c.stop(ReasonMaxDuration, nil)
}

// stop is the common path for every trigger.
func (c *Controller) stop(reason StopReason, err error) {
	c.window.Cancel()
	c.sampler.Stop()
	if c.detector != nil {
		c.detector.Reset()
	}
	if stopErr := c.capture.Stop(); stopErr != nil && err == nil {
		err = fmt.Errorf("stopping capture: %w", stopErr)
	}
	c.capture.Release()
	c.finish(reason, err)
}

func (c *Controller) finish(reason StopReason, err error) {
	c.session.Recording = false
	c.state = StateStopped
	c.reason = reason
	c.emit(StatusStopped, err)
}

func (c *Controller) emit(s Status, err error) {
	if c.observe == nil {
		return
	}
	ev := Event{Status: s, Session: c.snapshot(), Err: err}
	if s == StatusStopped {
		ev.Reason = c.reason
	}
	c.observe(ev)
}

func (c *Controller) snapshot() Session {
	s := *c.session
	s.Samples = slices.Clone(c.session.Samples)
	return s
}
