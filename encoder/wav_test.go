package encoder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWavRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	enc, err := Create(path, 22050)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	samples := tone(5000)
	if err := enc.EncodeBlock(samples[:1234]); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeBlock(samples[1234:]); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, rate, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rate != 22050 {
		t.Errorf("rate = %d, want 22050", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "x.ogg"), 16000); err == nil {
		t.Fatal("expected error for .ogg")
	}
	if _, _, err := Decode("x.mp3"); err == nil {
		t.Fatal("expected error decoding .mp3")
	}
}

func TestCreateKeepsExistingFile(t *testing.T) {
	for _, name := range []string{"old.wav", "old.flac"} {
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte("keep"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Create(path, 16000); !errors.Is(err, os.ErrExist) {
			t.Errorf("Create(%s) err = %v, want os.ErrExist", name, err)
		}
		if data, _ := os.ReadFile(path); string(data) != "keep" {
			t.Errorf("%s was overwritten: %q", name, data)
		}
	}
}

func TestTo16(t *testing.T) {
	tests := []struct {
		v, depth int
		want     int16
	}{
		{1000, 16, 1000},
		{1000 << 8, 24, 1000},
		{-1 << 16, 32, -1},
		{10, 8, 10 << 8},
	}
	for _, tt := range tests {
		if got := to16(tt.v, tt.depth); got != tt.want {
			t.Errorf("to16(%d, %d) = %d, want %d", tt.v, tt.depth, got, tt.want)
		}
	}
}
