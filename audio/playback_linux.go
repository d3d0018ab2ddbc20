//go:build linux

package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// Play blocks until samples have been played or ctx is done.
func Play(ctx context.Context, samples []int16, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}
	c, err := pulse.NewClient()
	if err != nil {
		return fmt.Errorf("pulse: %w", err)
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) || ctx.Err() != nil {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
	)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stream.Error(); err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	return nil
}
