//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// SIGHUP is included so closing the terminal still finalizes the recording.
var signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
