package audio

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// FindDevice returns the first device whose name contains name, ignoring case.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), want) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", name)
}

// SelectDevice asks which microphone to record from. A single device is
// returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}

	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}

	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Record from which microphone? (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			btTag := ""
			if IsBluetooth(d.Name) {
				btTag = " \x1b[33m[⚠ noisy baseline likely]\x1b[0m"
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, btTag)
			} else {
				fmt.Printf("    %s%s\r\n", d.Name, btTag)
			}
		}
	}

	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				return &devices[cursor], nil
			case 3: // Ctrl+C
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				os.Exit(130)
			case 'j': // vim down
				if cursor < len(devices)-1 {
					cursor++
				}
			case 'k': // vim up
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				if cursor > 0 {
					cursor--
				}
			case 'B': // Down arrow
				if cursor < len(devices)-1 {
					cursor++
				}
			}
		}

		lines := len(devices) + 2
		fmt.Printf("\x1b[%dA", lines)
		renderList()
	}
}
