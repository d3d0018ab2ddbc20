// Package hotkey delivers a global key chord that toggles recording.
package hotkey

import (
	"fmt"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

var modNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModShift, "shift"},
	{ModAlt, "alt"},
	{ModSuper, "super"},
}

// Binding is a chord of modifiers and one key, e.g. ctrl+shift+space.
type Binding struct {
	Mods Modifier
	Key  string // "space", "a".."z", "0".."9" or "f1".."f12"
}

// Parse reads a chord such as "ctrl+shift+space" or "Alt+R". Modifier
// aliases cmd, win and option are accepted.
func Parse(s string) (Binding, error) {
	var b Binding
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i < len(parts)-1 {
			m, ok := parseModifier(p)
			if !ok {
				return Binding{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
			}
			b.Mods |= m
			continue
		}
		if !validKey(p) {
			return Binding{}, fmt.Errorf("hotkey %q: unsupported key %q", s, p)
		}
		b.Key = p
	}
	if b.Mods == 0 {
		return Binding{}, fmt.Errorf("hotkey %q: at least one modifier is required", s)
	}
	return b, nil
}

func MustParse(s string) Binding {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

func parseModifier(s string) (Modifier, bool) {
	switch s {
	case "ctrl", "control":
		return ModCtrl, true
	case "shift":
		return ModShift, true
	case "alt", "option", "opt":
		return ModAlt, true
	case "super", "cmd", "command", "win", "meta":
		return ModSuper, true
	}
	return 0, false
}

func validKey(k string) bool {
	switch {
	case k == "space":
		return true
	case len(k) == 1:
		return (k[0] >= 'a' && k[0] <= 'z') || (k[0] >= '0' && k[0] <= '9')
	case len(k) >= 2 && k[0] == 'f':
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		return n >= 1 && n <= 12
	}
	return false
}

func (b Binding) String() string {
	var parts []string
	for _, m := range modNames {
		if b.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, b.Key), "+")
}
