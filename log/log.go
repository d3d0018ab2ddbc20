// Package log writes the diagnostics log and the recordings index.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagName       = "diagnostics_log.txt"
	recordingsName = "recordings_log.txt"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	recordingsFile *os.File
	logMu          sync.Mutex
	logReady       bool
	verbose        bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: QUIETREC_LOG_PATH environment variable
	if envPath := os.Getenv("QUIETREC_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// SetVerbose enables per-batch silence check lines.
func SetVerbose(v bool) {
	verbose = v
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagFile, err = os.OpenFile(filepath.Join(dir, diagName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	recordingsFile, err = os.OpenFile(filepath.Join(dir, recordingsName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	diagLog = zerolog.New(consoleWriter).Level(level).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if recordingsFile != nil {
		recordingsFile.Close()
		recordingsFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(id, destination, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("dest", destination).
		Str("device", device).
		Msg("session_start")
}

// Calibration records the measured noise floor. samples must be sorted.
func Calibration(id string, baseline int, samples []int, reduction string, proceed bool) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Str("session", id).
		Int("baseline", baseline).
		Int("count", len(samples)).
		Str("reduction", reduction).
		Bool("proceed", proceed)
	if len(samples) > 0 {
		ev = ev.Int("min", samples[0]).Int("max", samples[len(samples)-1])
	}
	ev.Ints("samples", samples).Msg("calibration")
}

func SilenceCheck(id string, tick, peak, baseline int, silent bool) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Str("session", id).
		Int("tick", tick).
		Int("peak", peak).
		Int("baseline", baseline).
		Bool("silent", silent).
		Msg("silence_check")
}

func SessionEnd(id, reason string, elapsed time.Duration, ticks int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("reason", reason).
		Float64("recorded_s", elapsed.Seconds()).
		Int("ticks", ticks).
		Msg("session_end")
}

// Recording appends one line per saved file to the recordings index.
func Recording(path, reason string, elapsed time.Duration) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%.1fs\t%s\t%s\n",
		time.Now().Format("2006-01-02 15:04:05"), pid, elapsed.Seconds(), reason, path)
	recordingsFile.WriteString(line)
}
