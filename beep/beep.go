// Package beep plays short cues when a recording session changes state.
package beep

import (
	"math"
	"sync"
)

var disabled bool

func Disable() { disabled = true }

const sampleRate = 44100

type Cue int

const (
	CueCalibrate Cue = iota // stay quiet
	CueStart                // start speaking
	CueEnd
	CueError
)

type tone struct {
	freq, volume, decay float64
	duration            float64 // seconds
	repeat              int
	gap                 float64 // seconds between repeats
}

var tones = map[Cue]tone{
	CueCalibrate: {freq: 600, volume: 0.3, decay: 25, duration: 0.12, repeat: 1},
	CueStart:     {freq: 1200, volume: 0.5, decay: 60, duration: 0.2, repeat: 1},
	CueEnd:       {freq: 900, volume: 0.5, decay: 40, duration: 0.2, repeat: 1},
	CueError:     {freq: 350, volume: 0.6, decay: 30, duration: 0.08, repeat: 2, gap: 0.05},
}

var (
	cueSamples map[Cue][]int16
	soundOnce  sync.Once
)

func initSound() {
	cueSamples = make(map[Cue][]int16, len(tones))
	for c, t := range tones {
		cueSamples[c] = t.render(sampleRate)
	}
	initOutput()
}

func (t tone) render(rate int) []int16 {
	tick := generateTick(rate, t.freq, t.duration, t.volume, t.decay)
	gap := make([]int16, int(float64(rate)*t.gap))
	out := make([]int16, 0, (len(tick)+len(gap))*t.repeat)
	for i := range t.repeat {
		if i > 0 {
			out = append(out, gap...)
		}
		out = append(out, tick...)
	}
	return out
}

// generateTick renders a decaying mono sine.
func generateTick(rate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(rate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func Init() {
	soundOnce.Do(initSound)
}

// Play sounds c without blocking.
func Play(c Cue) {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	output(cueSamples[c])
}

func PlayCalibrate() { Play(CueCalibrate) }
func PlayStart()     { Play(CueStart) }
func PlayEnd()       { Play(CueEnd) }
func PlayError()     { Play(CueError) }
