//go:build linux

package hotkey

import "encoding/binary"

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

const inputEventSize = 24

// Linux input event codes for the left and right variant of each modifier.
var modCodes = map[Modifier][2]uint16{
	ModCtrl:  {29, 97},
	ModShift: {42, 54},
	ModAlt:   {56, 100},
	ModSuper: {125, 126},
}

var keyCodes = map[string]uint16{
	"space": 57,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
}

// chordMatcher tracks held keys from one keyboard's event stream.
type chordMatcher struct {
	want    Modifier
	key     uint16
	held    Modifier
	keyHeld bool
}

func newChordMatcher(b Binding) *chordMatcher {
	return &chordMatcher{want: b.Mods, key: keyCodes[b.Key]}
}

// feed consumes one key event and reports whether the chord went down or up.
func (m *chordMatcher) feed(code uint16, value int32) (down, up bool) {
	pressed := value == keyPress
	released := value == keyRelease

	for mod, codes := range modCodes {
		if code == codes[0] || code == codes[1] {
			if pressed {
				m.held |= mod
			} else if released {
				m.held &^= mod
			}
			return false, false
		}
	}
	if code != m.key {
		return false, false
	}
	if pressed && !m.keyHeld && m.held&m.want == m.want {
		m.keyHeld = true
		return true, false
	}
	if released && m.keyHeld {
		m.keyHeld = false
		return false, true
	}
	return false, false
}

// parseEvent decodes a struct input_event on 64-bit Linux.
func parseEvent(buf []byte) (typ, code uint16, value int32) {
	return binary.LittleEndian.Uint16(buf[16:]),
		binary.LittleEndian.Uint16(buf[18:]),
		int32(binary.LittleEndian.Uint32(buf[20:]))
}
