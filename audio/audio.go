// Package audio captures microphone input through PulseAudio on Linux and
// miniaudio elsewhere, meters it, and plays recordings back.
package audio

import (
	"math"
	"strings"
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name. Bluetooth headsets drop to a
// narrowband profile while the mic is open, which skews the noise floor.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives little-endian 16-bit PCM.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	Gain       float64 // software gain, 1 = unity
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

func amplify(s int16, gain float64) int16 {
	if gain == 1 || gain == 0 {
		return s
	}
	v := math.Round(float64(s) * gain)
	return int16(max(min(v, math.MaxInt16), math.MinInt16))
}
