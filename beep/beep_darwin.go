//go:build darwin

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	// Playback state, read from the device callback.
	playSamples atomic.Pointer[[]byte]
	playPos     atomic.Uint32
	playMu      sync.Mutex
)

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{Data: dataCallback})
	return err
}

func initOutput() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	if err := initDevice(); err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func dataCallback(pOutput, _ []byte, frameCount uint32) {
	clear(pOutput)
	samples := playSamples.Load()
	if samples == nil {
		return
	}
	pos := playPos.Load()
	remaining := uint32(len(*samples)) - pos
	if remaining == 0 {
		playSamples.Store(nil)
		return
	}
	n := min(frameCount*2, remaining)
	copy(pOutput[:n], (*samples)[pos:pos+n])
	playPos.Store(pos + n)
}

func output(samples []int16) {
	if malgoCtx == nil || device == nil || len(samples) == 0 {
		return
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}

	playMu.Lock()
	defer playMu.Unlock()

	device.Stop()
	playPos.Store(0)
	playSamples.Store(&buf)

	if err := device.Start(); err != nil {
		// Recreate the device after sleep/wake.
		device.Uninit()
		if err := initDevice(); err != nil {
			playSamples.Store(nil)
			return
		}
		if err := device.Start(); err != nil {
			playSamples.Store(nil)
		}
	}
}
