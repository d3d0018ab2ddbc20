package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir(""); SetVerbose(false) })
	return tmp
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("QUIETREC_LOG_PATH", "/tmp/quietrec-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/quietrec-env-log" {
		t.Errorf("got %q, want /tmp/quietrec-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("QUIETREC_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "quietrec") {
		t.Errorf("default dir %q not under quietrec", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "recordings_log.txt"} {
		if _, err := os.Stat(filepath.Join(tmp, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestRecordingLine(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Recording("/rec/recording-1.flac", "silence", 3500*time.Millisecond)

	line := readLog(t, tmp, "recordings_log.txt")
	for _, want := range []string{"/rec/recording-1.flac", "silence", "3.5s"} {
		if !strings.Contains(line, want) {
			t.Errorf("recordings_log.txt missing %q, got: %q", want, line)
		}
	}
	if strings.Count(line, "\t") != 4 {
		t.Errorf("expected 5 tab-separated fields, got: %q", line)
	}
}

func TestSessionEvents(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	SessionStart("abc", "/rec/a.flac", "fake")
	Calibration("abc", 1000, []int{900, 950, 1000, 1100, 1200}, "median", true)
	SilenceCheck("abc", 15, 800, 1000, true)
	SessionEnd("abc", "silence", 1500*time.Millisecond, 15)

	out := readLog(t, tmp, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "calibration", "baseline=1000", "session_end", "reason=silence"} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostics log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "silence_check") {
		t.Error("silence_check logged without verbose")
	}
}

func TestVerboseLogsSilenceChecks(t *testing.T) {
	tmp := setupLogDir(t)
	SetVerbose(true)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	SilenceCheck("abc", 15, 800, 1000, true)
	if out := readLog(t, tmp, "diagnostics_log.txt"); !strings.Contains(out, "silence_check") {
		t.Errorf("verbose log missing silence_check:\n%s", out)
	}
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
