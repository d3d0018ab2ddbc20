package recorder

import (
	"errors"
	"testing"
	"time"

	"quietrec/calibration"
	"quietrec/looper"
)

const tickEvery = 100 * time.Millisecond

type fakeCapture struct {
	readings []int
	active   bool
	startErr error
	stopErr  error
	onMax    func()

	starts, stops, releases, reads int
	destination                    string
}

func (f *fakeCapture) PeakAmplitude() (int, bool) {
	f.reads++
	if !f.active || len(f.readings) == 0 {
		return 0, false
	}
	v := f.readings[0]
	f.readings = f.readings[1:]
	return v, true
}

func (f *fakeCapture) Start(dest string) error {
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.destination = dest
	f.active = true
	return nil
}

func (f *fakeCapture) Stop() error {
	f.stops++
	f.active = false
	return f.stopErr
}

func (f *fakeCapture) Release()                { f.releases++ }
func (f *fakeCapture) OnMaxDuration(fn func()) { f.onMax = fn }

func testConfig(batch int) Config {
	return Config{
		Calibration: calibration.Config{
			Duration:    5 * tickEvery,
			Interval:    tickEvery,
			MinBaseline: 1000,
			MaxBaseline: 10000,
			Reduction:   calibration.Median,
		},
		RecordingInterval: tickEvery,
		BatchSize:         batch,
	}
}

type harness struct {
	loop    *looper.FakeLoop
	capture *fakeCapture
	ctrl    *Controller
	events  []Event
	ticks   []TickInfo
}

func newHarness(t *testing.T, batch int, readings ...int) *harness {
	t.Helper()
	h := &harness{
		loop:    looper.NewFake(),
		capture: &fakeCapture{readings: readings},
	}
	h.ctrl = New(h.loop, h.capture, testConfig(batch),
		WithObserver(func(ev Event) { h.events = append(h.events, ev) }),
		WithTickObserver(func(ti TickInfo) { h.ticks = append(h.ticks, ti) }),
	)
	return h
}

func (h *harness) statuses() []Status {
	out := make([]Status, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.Status
	}
	return out
}

func (h *harness) last() Event {
	return h.events[len(h.events)-1]
}

func requireStatuses(t *testing.T, h *harness, want ...Status) {
	t.Helper()
	got := h.statuses()
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", got, want)
		}
	}
}

func TestSilenceEndsSession(t *testing.T) {
	h := newHarness(t, 2,
		1200, 900, 1100, 1000, 950, // calibration
		1500, 1600, // loud batch
		800, 900, // quiet batch
	)
	if err := h.ctrl.BeginSession("/tmp/out.flac"); err != nil {
		t.Fatal(err)
	}
	if h.ctrl.State() != StateCalibrating {
		t.Fatalf("state = %v, want calibrating", h.ctrl.State())
	}

	h.loop.Advance(5 * tickEvery)
	if h.ctrl.State() != StateRecording {
		t.Fatalf("state = %v after calibration, want recording", h.ctrl.State())
	}
	sess, _ := h.ctrl.Session()
	if sess.Baseline != 1000 {
		t.Fatalf("baseline = %d, want 1000", sess.Baseline)
	}

	h.loop.Advance(2 * tickEvery)
	if h.ctrl.State() != StateRecording {
		t.Fatal("loud batch stopped the recording")
	}

	h.loop.Advance(2 * tickEvery)
	requireStatuses(t, h, StatusCalibrating, StatusRecording, StatusSilenceDetected, StatusStopped)
	if h.ctrl.State() != StateStopped || h.ctrl.LastReason() != ReasonSilence {
		t.Fatalf("state=%v reason=%v, want stopped/silence", h.ctrl.State(), h.ctrl.LastReason())
	}
	if ev := h.last(); ev.Reason != ReasonSilence || ev.Err != nil || ev.Session.Recording {
		t.Errorf("stopped event = %+v", ev)
	}
	if h.capture.stops != 1 || h.capture.releases != 1 {
		t.Errorf("stops=%d releases=%d, want 1/1", h.capture.stops, h.capture.releases)
	}
	if h.capture.destination != "/tmp/out.flac" {
		t.Errorf("destination = %q", h.capture.destination)
	}
	if len(h.ticks) != 4 || h.ticks[3].Elapsed != 4*tickEvery {
		t.Fatalf("ticks = %+v", h.ticks)
	}
	if h.ticks[0].Checked || !h.ticks[1].Checked || h.ticks[1].BatchPeak != 1600 || h.ticks[1].Silent {
		t.Errorf("loud batch tick = %+v", h.ticks[1])
	}
	if !h.ticks[3].Checked || !h.ticks[3].Silent || h.ticks[3].BatchPeak != 900 {
		t.Errorf("quiet batch tick = %+v", h.ticks[3])
	}
}

func TestNoTicksAfterStop(t *testing.T) {
	h := newHarness(t, 1, 1200, 900, 1100, 1000, 950, 500)
	h.ctrl.BeginSession("out.flac")
	h.loop.Advance(6 * tickEvery)
	if h.ctrl.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", h.ctrl.State())
	}
	reads := h.capture.reads
	h.loop.Advance(5 * tickEvery)
	if h.capture.reads != reads {
		t.Fatalf("%d reads after stop", h.capture.reads-reads)
	}
	if h.loop.Pending() != 0 {
		t.Errorf("Pending = %d after stop", h.loop.Pending())
	}
}

func TestTooNoisyAbortsBeforeRecording(t *testing.T) {
	h := newHarness(t, 2, 12000, 11000, 15000, 13000, 12500)
	h.ctrl.BeginSession("out.flac")
	h.loop.Advance(time.Second)

	requireStatuses(t, h, StatusCalibrating, StatusTooNoisy, StatusStopped)
	if h.ctrl.LastReason() != ReasonTooNoisy {
		t.Fatalf("reason = %v, want too_noisy", h.ctrl.LastReason())
	}
	if !errors.Is(h.last().Err, ErrTooNoisy) {
		t.Errorf("stopped err = %v, want ErrTooNoisy", h.last().Err)
	}
	if h.capture.stops != 1 || h.capture.releases != 1 {
		t.Errorf("capture not released: stops=%d releases=%d", h.capture.stops, h.capture.releases)
	}
}

func TestEmptyCalibrationUsesMinimum(t *testing.T) {
	h := newHarness(t, 2)
	h.ctrl.BeginSession("out.flac")
	h.loop.Advance(5 * tickEvery)
	sess, _ := h.ctrl.Session()
	if sess.Baseline != 1000 || h.ctrl.State() != StateRecording {
		t.Fatalf("baseline=%d state=%v, want 1000/recording", sess.Baseline, h.ctrl.State())
	}
}

func TestCaptureUnavailable(t *testing.T) {
	h := newHarness(t, 2)
	h.capture.startErr = errors.New("device busy")

	err := h.ctrl.BeginSession("out.flac")
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("err = %v, want ErrCaptureUnavailable", err)
	}
	requireStatuses(t, h, StatusStopped)
	if h.last().Reason != ReasonCaptureUnavailable || !errors.Is(h.last().Err, ErrCaptureUnavailable) {
		t.Errorf("stopped event = %+v", h.last())
	}
	if h.capture.releases != 1 {
		t.Errorf("releases = %d, want 1", h.capture.releases)
	}
	h.loop.Advance(time.Second)
	if h.capture.reads != 0 {
		t.Errorf("calibration ran after failed start")
	}
}

func TestMaxDurationBeatsPendingBatch(t *testing.T) {
	h := newHarness(t, 3, 1200, 900, 1100, 1000, 950, 500, 500)
	h.ctrl.BeginSession("out.flac")
	h.loop.Advance(7 * tickEvery)
	if h.ctrl.State() != StateRecording {
		t.Fatalf("state = %v, want recording", h.ctrl.State())
	}

	h.capture.onMax()
	h.loop.Flush()

	requireStatuses(t, h, StatusCalibrating, StatusRecording, StatusMaxDurationReached, StatusStopped)
	if h.ctrl.LastReason() != ReasonMaxDuration {
		t.Fatalf("reason = %v, want max_duration", h.ctrl.LastReason())
	}
	h.loop.Advance(time.Second)
	if len(h.events) != 4 {
		t.Errorf("events after stop: %v", h.statuses())
	}
}

func TestMaxDurationDuringCalibration(t *testing.T) {
	h := newHarness(t, 2, 1200, 900)
	h.ctrl.BeginSession("out.flac")
	h.loop.Advance(2 * tickEvery)
	h.capture.onMax()
	h.loop.Advance(time.Second)
	requireStatuses(t, h, StatusCalibrating, StatusMaxDurationReached, StatusStopped)
}

func TestStaleMaxDurationIgnored(t *testing.T) {
	h := newHarness(t, 2)
	h.ctrl.BeginSession("first.flac")
	first := h.capture.onMax
	h.ctrl.EndSession()

	h.ctrl.BeginSession("second.flac")
	first()
	h.loop.Flush()
	if h.ctrl.State() != StateCalibrating {
		t.Fatalf("stale signal stopped new session: state=%v", h.ctrl.State())
	}
}

func TestManualStopDuringCalibration(t *testing.T) {
	h := newHarness(t, 2, 1200, 900, 1100, 1000, 950)
	h.ctrl.BeginSession("out.flac")
	h.loop.Advance(2 * tickEvery)
	if err := h.ctrl.EndSession(); err != nil {
		t.Fatal(err)
	}
	h.loop.Advance(time.Second)
	requireStatuses(t, h, StatusCalibrating, StatusStopped)
	if h.ctrl.LastReason() != ReasonUser {
		t.Fatalf("reason = %v, want user", h.ctrl.LastReason())
	}
}

func TestCallerContractViolations(t *testing.T) {
	h := newHarness(t, 2)
	if err := h.ctrl.EndSession(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("EndSession while idle: %v", err)
	}
	if h.ctrl.State() != StateIdle || len(h.events) != 0 {
		t.Fatalf("idle stop changed state: %v %v", h.ctrl.State(), h.statuses())
	}

	h.ctrl.BeginSession("a.flac")
	if err := h.ctrl.BeginSession("b.flac"); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("double start: %v", err)
	}
	if h.capture.starts != 1 {
		t.Errorf("starts = %d, want 1", h.capture.starts)
	}
	sess, _ := h.ctrl.Session()
	if sess.Destination != "a.flac" {
		t.Errorf("double start replaced session: %q", sess.Destination)
	}
}

func TestToggle(t *testing.T) {
	h := newHarness(t, 2)
	if err := h.ctrl.Toggle("a.flac"); err != nil {
		t.Fatal(err)
	}
	if !h.ctrl.State().Active() {
		t.Fatal("toggle did not start a session")
	}
	if err := h.ctrl.Toggle("ignored.flac"); err != nil {
		t.Fatal(err)
	}
	if h.ctrl.State() != StateStopped || h.ctrl.LastReason() != ReasonUser {
		t.Fatalf("state=%v reason=%v", h.ctrl.State(), h.ctrl.LastReason())
	}
	if err := h.ctrl.Toggle("b.flac"); err != nil {
		t.Fatal(err)
	}
	sess, _ := h.ctrl.Session()
	if sess.Destination != "b.flac" || !sess.Recording {
		t.Errorf("new session = %+v", sess)
	}
}

func TestStopErrorReported(t *testing.T) {
	h := newHarness(t, 2)
	h.capture.stopErr = errors.New("flush failed")
	h.ctrl.BeginSession("out.flac")
	h.ctrl.EndSession()
	if h.last().Err == nil {
		t.Fatal("stop error not reported")
	}
}

func TestStatusMessages(t *testing.T) {
	for s := StatusCalibrating; s <= StatusStopped; s++ {
		if s.Message() == "" || s.String() == "" {
			t.Errorf("status %d has empty label", s)
		}
	}
}
