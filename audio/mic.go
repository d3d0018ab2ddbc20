package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"quietrec/encoder"
)

// SinkFunc opens the file a recording is written to.
type SinkFunc func(path string, sampleRate int) (encoder.Encoder, error)

type MicOption func(*Microphone)

// WithMaxDuration caps the recorded audio. Zero disables the cap.
func WithMaxDuration(d time.Duration) MicOption {
	return func(m *Microphone) { m.maxDuration = d }
}

// WithLevelMeter receives the RMS level (0..1) of every captured chunk. It is
// called on the capture goroutine.
func WithLevelMeter(fn func(rms float64)) MicOption {
	return func(m *Microphone) { m.onLevel = fn }
}

func WithSink(fn SinkFunc) MicOption {
	return func(m *Microphone) { m.newSink = fn }
}

// Microphone records one file at a time and reports the peak amplitude seen
// since the previous read.
type Microphone struct {
	ctx         Context
	device      *DeviceInfo
	config      CaptureConfig
	maxDuration time.Duration
	onLevel     func(float64)
	newSink     SinkFunc

	mu        sync.Mutex
	capture   CaptureDevice
	enc       encoder.Encoder
	frames    uint64
	maxFrames uint64
	capped    bool
	writeErr  error
	onMax     func()

	peak   atomic.Int32
	active atomic.Bool
}

func NewMicrophone(ctx Context, device *DeviceInfo, config CaptureConfig, opts ...MicOption) *Microphone {
	if config.Channels == 0 {
		config.Channels = encoder.Channels
	}
	m := &Microphone{
		ctx:     ctx,
		device:  device,
		config:  config,
		newSink: func(path string, rate int) (encoder.Encoder, error) { return encoder.Create(path, rate) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Microphone) Start(destination string) error {
	m.mu.Lock()
	if m.capture != nil {
		m.mu.Unlock()
		return errors.New("microphone already recording")
	}
	m.mu.Unlock()

	if dir := filepath.Dir(destination); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	enc, err := m.newSink(destination, int(m.config.SampleRate))
	if err != nil {
		return fmt.Errorf("opening %s: %w", destination, err)
	}
	capture, err := m.ctx.NewCapture(m.device, m.config)
	if err != nil {
		enc.Close()
		return fmt.Errorf("opening capture device: %w", err)
	}

	m.mu.Lock()
	m.capture = capture
	m.enc = enc
	m.frames = 0
	m.capped = false
	m.writeErr = nil
	m.maxFrames = uint64(m.maxDuration) * uint64(m.config.SampleRate) / uint64(time.Second)
	m.mu.Unlock()
	m.peak.Store(0)
	m.active.Store(true)

	capture.SetCallback(m.onData)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		m.active.Store(false)
		m.mu.Lock()
		m.capture = nil
		m.enc = nil
		m.mu.Unlock()
		enc.Close()
		return fmt.Errorf("starting capture: %w", err)
	}
	return nil
}

// PeakAmplitude returns the largest absolute sample since the last call and
// resets it. It reports false while nothing is being captured.
func (m *Microphone) PeakAmplitude() (int, bool) {
	if !m.active.Load() {
		return 0, false
	}
	return int(m.peak.Swap(0)), true
}

func (m *Microphone) onData(data []byte, _ uint32) {
	n := len(data) / 2
	if n == 0 {
		return
	}
	samples := make([]int16, n)
	var peak int32
	var sumSquares float64
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = s
		a := int32(s)
		if a < 0 {
			a = -a
		}
		peak = max(peak, a)
		sumSquares += float64(s) * float64(s)
	}
	for {
		cur := m.peak.Load()
		if peak <= cur || m.peak.CompareAndSwap(cur, peak) {
			break
		}
	}
	if m.onLevel != nil {
		m.onLevel(math.Sqrt(sumSquares/float64(n)) / 32768)
	}

	m.mu.Lock()
	if m.enc == nil || m.capped {
		m.mu.Unlock()
		return
	}
	if m.maxFrames > 0 {
		remaining := m.maxFrames - m.frames
		if uint64(len(samples)) >= remaining {
			samples = samples[:remaining]
			m.capped = true
		}
	}
	if len(samples) > 0 && m.writeErr == nil {
		if err := m.enc.EncodeBlock(samples); err != nil {
			m.writeErr = err
		}
	}
	m.frames += uint64(len(samples))
	var fire func()
	if m.capped {
		fire = m.onMax
	}
	m.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Stop ends the capture and finalizes the file. It is a no-op when idle.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	capture := m.capture
	m.mu.Unlock()
	if capture == nil {
		return nil
	}

	m.active.Store(false)
	capture.ClearCallback()
	capture.Stop()
	capture.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	var closeErr error
	if m.enc != nil {
		closeErr = m.enc.Close()
	}
	err := errors.Join(m.writeErr, closeErr)
	m.capture = nil
	m.enc = nil
	return err
}

// Release drops the max-duration callback and any capture still open.
func (m *Microphone) Release() {
	m.Stop()
	m.mu.Lock()
	m.onMax = nil
	m.mu.Unlock()
	m.peak.Store(0)
}

func (m *Microphone) OnMaxDuration(fn func()) {
	m.mu.Lock()
	m.onMax = fn
	m.mu.Unlock()
}

// Recorded is the length of audio written to the current or last file.
func (m *Microphone) Recorded() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config.SampleRate == 0 {
		return 0
	}
	return time.Duration(m.frames) * time.Second / time.Duration(m.config.SampleRate)
}

func (m *Microphone) DeviceName() string {
	if m.device != nil {
		return m.device.Name
	}
	return "system default"
}
