//go:build linux

package hotkey

import (
	"encoding/binary"
	"testing"
)

func TestChordMatcher(t *testing.T) {
	m := newChordMatcher(MustParse("ctrl+shift+space"))
	type step struct {
		code     uint16
		value    int32
		down, up bool
	}
	steps := []step{
		{57, keyPress, false, false}, // space alone
		{57, keyRelease, false, false},
		{29, keyPress, false, false},
		{57, keyPress, false, false}, // ctrl only
		{57, keyRelease, false, false},
		{54, keyPress, false, false},
		{57, keyPress, true, false},
		{57, 2, false, false}, // autorepeat
		{57, keyRelease, false, true},
		{29, keyRelease, false, false},
		{57, keyPress, false, false},
	}
	for i, s := range steps {
		down, up := m.feed(s.code, s.value)
		if down != s.down || up != s.up {
			t.Fatalf("step %d (code %d value %d): down=%v up=%v, want %v %v", i, s.code, s.value, down, up, s.down, s.up)
		}
	}
}

func TestChordMatcherReleaseAfterModifiers(t *testing.T) {
	m := newChordMatcher(MustParse("alt+r"))
	m.feed(56, keyPress)
	if down, _ := m.feed(19, keyPress); !down {
		t.Fatal("alt+r not detected")
	}
	m.feed(56, keyRelease)
	if _, up := m.feed(19, keyRelease); !up {
		t.Fatal("key release after modifier release not reported")
	}
}

func TestParseEvent(t *testing.T) {
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(buf[16:], evKey)
	binary.LittleEndian.PutUint16(buf[18:], 57)
	binary.LittleEndian.PutUint32(buf[20:], keyPress)
	typ, code, value := parseEvent(buf)
	if typ != evKey || code != 57 || value != keyPress {
		t.Errorf("parseEvent = %d %d %d", typ, code, value)
	}
}

func TestEveryKeyHasCode(t *testing.T) {
	for _, k := range []string{"space", "a", "m", "z", "0", "9", "f1", "f12"} {
		if _, ok := keyCodes[k]; !ok {
			t.Errorf("no evdev code for %q", k)
		}
	}
	if len(keyCodes) != 1+26+10+12 {
		t.Errorf("keyCodes has %d entries", len(keyCodes))
	}
}

func TestHasKey(t *testing.T) {
	// space (57) in the low word, f12 (88) in the next one up.
	caps := "1000000 200000000000000\n"
	tests := []struct {
		code uint16
		want bool
	}{
		{57, true},
		{88, true},
		{30, false},
		{87, false},
		{200, false},
	}
	for _, tt := range tests {
		if got := hasKey(caps, tt.code); got != tt.want {
			t.Errorf("hasKey(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if hasKey("", 57) {
		t.Error("empty bitmap reported a key")
	}
	if hasKey("zz", 1) {
		t.Error("malformed bitmap reported a key")
	}
}
