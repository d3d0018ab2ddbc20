// Package encoder writes captured PCM to recording files and reads them back.
package encoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder accepts mono 16-bit PCM in blocks of any length.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	TotalFrames() uint64
}

// Create opens path for writing and picks the format from its extension. An
// existing file is never overwritten; the error then wraps os.ErrExist.
func Create(path string, sampleRate int) (Encoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".flac":
		return CreateFlac(path, sampleRate)
	case ".wav":
		return CreateWav(path, sampleRate)
	default:
		return nil, fmt.Errorf("unsupported recording format %q", ext)
	}
}

func createFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
}

// Discard counts samples without storing them.
type Discard struct {
	frames uint64
}

func (d *Discard) EncodeBlock(block []int16) error {
	d.frames += uint64(len(block))
	return nil
}

func (d *Discard) Close() error        { return nil }
func (d *Discard) TotalFrames() uint64 { return d.frames }
