//go:build linux

package hotkey

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	inputDir = "/dev/input"
	sysInput = "/sys/class/input"
)

var errNoKeyboards = errors.New("no keyboard devices found (is user in 'input' group?)")

// linuxHotkey reads /dev/input directly so it works under Wayland.
type linuxHotkey struct {
	binding Binding
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New(b Binding) Hotkey {
	return &linuxHotkey{
		binding: b,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register() error {
	files, found, err := openKeyboards(keyCodes[h.binding.Key])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("could not open any of %d keyboard device(s) (run: sudo usermod -aG input $USER, then re-login)", found)
	}
	h.stop = make(chan struct{})
	h.files = files
	for _, f := range files {
		go h.readEvents(f)
	}
	return nil
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	m := newChordMatcher(h.binding)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		select {
		case <-h.stop:
			return
		default:
		}
		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			typ, code, value := parseEvent(buf[i : i+inputEventSize])
			if typ != evKey {
				continue
			}
			down, up := m.feed(code, value)
			if down {
				notify(h.keydown)
			}
			if up {
				notify(h.keyup)
			}
		}
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *linuxHotkey) Keyup() <-chan struct{}   { return h.keyup }

// openKeyboards opens every event device that can emit code. found counts the
// matching devices, opened or not.
func openKeyboards(code uint16) (files []*os.File, found int, err error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, 0, fmt.Errorf("finding keyboards: %w", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		caps, err := os.ReadFile(filepath.Join(sysInput, e.Name(), "device", "capabilities", "key"))
		if err != nil || !hasKey(string(caps), code) {
			continue
		}
		found++
		if f, err := os.Open(filepath.Join(inputDir, e.Name())); err == nil {
			files = append(files, f)
		}
	}
	if found == 0 {
		return nil, 0, errNoKeyboards
	}
	return files, found, nil
}

// hasKey reports whether the sysfs key capability bitmap includes code. The
// bitmap is space separated hex words, most significant first.
func hasKey(caps string, code uint16) bool {
	words := strings.Fields(caps)
	idx := len(words) - 1 - int(code/64)
	if idx < 0 {
		return false
	}
	w, err := strconv.ParseUint(words[idx], 16, 64)
	if err != nil {
		return false
	}
	return w&(1<<(code%64)) != 0
}

// Diagnose checks that keyboard devices can be read for b.
func Diagnose(b Binding) (string, error) {
	files, found, err := openKeyboards(keyCodes[b.Key])
	if err != nil {
		return "", err
	}
	for _, f := range files {
		f.Close()
	}
	if len(files) == 0 {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", found)
	}
	return fmt.Sprintf("%s via %d of %d keyboard(s)", b, len(files), found), nil
}
