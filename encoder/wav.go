package encoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

type WavEncoder struct {
	enc         *wav.Encoder
	file        *os.File
	buf         *audio.IntBuffer
	totalFrames uint64
	mu          sync.Mutex
}

// NewWav encodes to ws. The RIFF sizes are written on Close.
func NewWav(ws io.WriteSeeker, sampleRate int) *WavEncoder {
	return &WavEncoder{
		enc: wav.NewEncoder(ws, sampleRate, BitsPerSample, Channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: Channels, SampleRate: sampleRate},
			SourceBitDepth: BitsPerSample,
		},
	}
}

func CreateWav(path string, sampleRate int) (*WavEncoder, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	e := NewWav(f, sampleRate)
	e.file = f
	return e, nil
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cap(e.buf.Data) < len(block) {
		e.buf.Data = make([]int, len(block))
	}
	e.buf.Data = e.buf.Data[:len(block)]
	for i, s := range block {
		e.buf.Data[i] = int(s)
	}
	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	errs := []error{e.enc.Close()}
	if e.file != nil {
		errs = append(errs, e.file.Close())
	}
	return errors.Join(errs...)
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
