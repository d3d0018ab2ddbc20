//go:build windows

package beep

// No audio playback on Windows; cues are silent.

func initOutput()    {}
func output([]int16) {}
