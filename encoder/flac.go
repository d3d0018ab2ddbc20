package encoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder buffers samples into BlockSize frames; the final short block is
// written on Close.
type FlacEncoder struct {
	enc         *flac.Encoder
	file        *os.File
	sampleRate  int
	pending     []int16
	totalFrames uint64
	mu          sync.Mutex
}

// NewFlac encodes to w. If w is an io.WriteSeeker the stream info is patched
// with the final sample count on Close.
func NewFlac(w io.Writer, sampleRate int) (*FlacEncoder, error) {
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	return &FlacEncoder{
		enc:        enc,
		sampleRate: sampleRate,
		pending:    make([]int16, 0, BlockSize),
	}, nil
}

func CreateFlac(path string, sampleRate int) (*FlacEncoder, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	e, err := NewFlac(f, sampleRate)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	e.file = f
	return e, nil
}

func (e *FlacEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(block) > 0 {
		n := min(BlockSize-len(e.pending), len(block))
		e.pending = append(e.pending, block[:n]...)
		block = block[n:]
		if len(e.pending) == BlockSize {
			if err := e.writeFrame(e.pending); err != nil {
				return err
			}
			e.pending = e.pending[:0]
		}
	}
	return nil
}

func (e *FlacEncoder) writeFrame(block []int16) error {
	samples32 := make([]int32, len(block))
	for i, s := range block {
		samples32[i] = int32(s)
	}

	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  samples32,
		NSamples: len(block),
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    uint32(e.sampleRate),
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}

	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *FlacEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if len(e.pending) > 0 {
		errs = append(errs, e.writeFrame(e.pending))
		e.pending = e.pending[:0]
	}
	errs = append(errs, e.enc.Close())
	if e.file != nil {
		// flac.Encoder closes writers that implement io.Closer.
		if err := e.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *FlacEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
