package audio

import (
	"encoding/binary"
	"sync"
	"time"

	"quietrec/encoder"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays a recording in place of a microphone. In realtime mode
// chunks are paced at the file's sample rate and silence follows the end of
// the file; otherwise the whole file is delivered inside Start.
type FakeContext struct {
	pcm        []byte
	sampleRate int
	realtime   bool

	mu      sync.Mutex
	current *FakeCapture
}

func NewFakeContext(path string, realtime bool) (*FakeContext, error) {
	samples, rate, err := encoder.Decode(path)
	if err != nil {
		return nil, err
	}
	return NewFakeContextPCM(samples, rate, realtime), nil
}

func NewFakeContextPCM(samples []int16, sampleRate int, realtime bool) *FakeContext {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return &FakeContext{pcm: pcm, sampleRate: sampleRate, realtime: realtime}
}

func (f *FakeContext) SampleRate() int                { return f.sampleRate }
func (f *FakeContext) Devices() ([]DeviceInfo, error) { return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	c := &FakeCapture{
		pcm:        f.pcm,
		sampleRate: f.sampleRate,
		realtime:   f.realtime,
		audioDone:  make(chan struct{}),
	}
	f.mu.Lock()
	f.current = c
	f.mu.Unlock()
	return c, nil
}

// Current is the most recently opened capture, or nil.
func (f *FakeContext) Current() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

type FakeCapture struct {
	pcm        []byte
	sampleRate int
	realtime   bool
	audioDone  chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone closes once the whole file has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunkBytes int) int {
	end := min(pos+chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	if !f.realtime {
		if cb := f.callback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
		close(f.audioDone)
		close(f.feedDone)
		return nil
	}

	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(max(f.sampleRate, 1))
	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, chunkBytes)
		audioFinished := false
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if cb := f.callback(); cb != nil {
				if pos < len(f.pcm) {
					pos = f.feedChunk(cb, pos, chunkBytes)
				} else {
					if !audioFinished {
						audioFinished = true
						close(f.audioDone)
					}
					cb(silence, fakeFrameSize)
				}
			}
			select {
			case <-f.stopCh:
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {}
