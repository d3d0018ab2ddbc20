//go:build !windows

package doctor

import "os/exec"

// resetTerminal restores echo after the evdev listener or a killed picker
// left the tty in raw mode.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
