//go:build !linux

package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Play blocks until samples have been played or ctx is done.
func Play(ctx context.Context, samples []int16, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("malgo: %w", err)
	}
	defer func() {
		mctx.Uninit()
		mctx.Free()
	}()

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = uint32(sampleRate)

	pos := 0
	done := make(chan struct{})
	var once sync.Once
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			for i := 0; i < int(frameCount) && i*2+1 < len(out); i++ {
				var s int16
				if pos < len(samples) {
					s = samples[pos]
					pos++
				}
				binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
			}
			if pos >= len(samples) {
				once.Do(func() { close(done) })
			}
		},
	}
	device, err := malgo.InitDevice(mctx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("malgo playback: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("malgo playback: %w", err)
	}
	defer device.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
