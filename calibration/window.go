// Package calibration measures the ambient noise floor before recording starts.
package calibration

import (
	"slices"
	"time"

	"quietrec/looper"
	"quietrec/sampler"
)

// AmplitudeReader yields the peak amplitude since the previous read. ok is
// false while capture is inactive.
type AmplitudeReader interface {
	PeakAmplitude() (amplitude int, ok bool)
}

type Config struct {
	Duration    time.Duration
	Interval    time.Duration
	MinBaseline int
	MaxBaseline int // baselines at or above this are too noisy
	Reduction   Reduction
}

// Result is emitted once when the window closes.
type Result struct {
	Baseline int
	Samples  []int // sorted ascending
	Empty    bool  // no reading was available; Baseline is MinBaseline
	Proceed  bool
}

// Window samples the reader every Interval for Duration and reports a Result.
type Window struct {
	cfg     Config
	reader  AmplitudeReader
	done    func(Result)
	sampler *sampler.Sampler
	buf     []int
}

func NewWindow(sched looper.Scheduler, reader AmplitudeReader, cfg Config, done func(Result)) *Window {
	w := &Window{
		cfg:    cfg,
		reader: reader,
		done:   done,
	}
	if cfg.Interval > 0 {
		w.buf = make([]int, 0, int(cfg.Duration/cfg.Interval))
	}
	w.sampler = sampler.New(sched, cfg.Interval, w.tick)
	return w
}

func (w *Window) Start() {
	w.buf = w.buf[:0]
	w.sampler.Start()
}

// Cancel stops sampling without reporting a result.
func (w *Window) Cancel() {
	w.sampler.Stop()
	w.buf = w.buf[:0]
}

func (w *Window) Running() bool { return w.sampler.Running() }

func (w *Window) tick(elapsed time.Duration, _ int) {
	if amp, ok := w.reader.PeakAmplitude(); ok {
		w.buf = append(w.buf, amp)
	}
	if elapsed < w.cfg.Duration {
		return
	}
	w.sampler.Stop()
	w.done(Evaluate(w.buf, w.cfg))
	w.buf = w.buf[:0]
}

// Evaluate computes the baseline and proceed decision for a full set of samples.
func Evaluate(samples []int, cfg Config) Result {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	baseline := Baseline(sorted, cfg.Reduction, cfg.MinBaseline)
	return Result{
		Baseline: baseline,
		Samples:  sorted,
		Empty:    len(sorted) == 0,
		Proceed:  baseline < cfg.MaxBaseline,
	}
}
