package encoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

// Decode reads a recording back as mono 16-bit PCM. Multi-channel files keep
// only the first channel; other bit depths are rescaled to 16 bits.
func Decode(path string) ([]int16, int, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".flac":
		return decodeFlac(path)
	case ".wav":
		return decodeWav(path)
	default:
		return nil, 0, fmt.Errorf("unsupported recording format %q", ext)
	}
}

func decodeFlac(path string) ([]int16, int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening flac: %w", err)
	}
	defer stream.Close()

	depth := int(stream.Info.BitsPerSample)
	samples := make([]int16, 0, stream.Info.NSamples)
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("decoding flac frame: %w", err)
		}
		for _, s := range f.Subframes[0].Samples {
			samples = append(samples, to16(int(s), depth))
		}
	}
	return samples, int(stream.Info.SampleRate), nil
}

func decodeWav(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding wav: %w", err)
	}
	chans := max(int(d.NumChans), 1)
	depth := int(d.BitDepth)
	samples := make([]int16, 0, len(buf.Data)/chans)
	for i := 0; i < len(buf.Data); i += chans {
		v := buf.Data[i]
		if depth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		samples = append(samples, to16(v, depth))
	}
	return samples, int(d.SampleRate), nil
}

func to16(v, depth int) int16 {
	switch {
	case depth > 16:
		return int16(v >> (depth - 16))
	case depth > 0 && depth < 16:
		return int16(v << (16 - depth))
	}
	return int16(v)
}
