//go:build !linux

package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"
)

type xHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
}

func New(b Binding) Hotkey {
	var mods []hotkey.Modifier
	for _, m := range modNames {
		if b.Mods&m.mod != 0 {
			mods = append(mods, platformMod(m.mod))
		}
	}
	return &xHotkey{
		hk:      hotkey.New(mods, xKey(b.Key)),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func xKey(k string) hotkey.Key {
	if k == "space" {
		return hotkey.KeySpace
	}
	if key, ok := letterKeys[k]; ok {
		return key
	}
	if key, ok := digitKeys[k]; ok {
		return key
	}
	if key, ok := functionKeys[k]; ok {
		return key
	}
	return hotkey.KeySpace
}

var letterKeys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,
}

var digitKeys = map[string]hotkey.Key{
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,
}

var functionKeys = map[string]hotkey.Key{
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	h.stop = make(chan struct{})
	go h.forward(h.hk.Keydown(), h.keydown)
	go h.forward(h.hk.Keyup(), h.keyup)
	return nil
}

func (h *xHotkey) forward(in <-chan hotkey.Event, out chan struct{}) {
	for {
		select {
		case <-h.stop:
			return
		case <-in:
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

func (h *xHotkey) Unregister() {
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
	h.hk.Unregister()
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func Diagnose(b Binding) (string, error) {
	return fmt.Sprintf("hotkey support available (%s)", b), nil
}
