// Package config holds the recorder settings, their defaults, flag bindings
// and validation.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"quietrec/calibration"
	"quietrec/recorder"
)

// Defaults match the behaviour people expect from a phone voice memo: two
// seconds of calibration, a check every 1.5s, and an 8 second cap.
const (
	DefaultCalibrationDuration  = 2000 * time.Millisecond
	DefaultCalibrationInterval  = 100 * time.Millisecond
	DefaultRecordingInterval    = 100 * time.Millisecond
	DefaultBatchSize            = 15
	DefaultMinBaseline          = 1000
	DefaultMaxBaselineThreshold = 10000
	DefaultMaxRecordingDuration = 8000 * time.Millisecond
	DefaultReduction            = string(calibration.Median)
	DefaultFormat               = "flac"
	DefaultSampleRate           = 16000
	DefaultHotkey               = "ctrl+shift+space"

	envPrefix = "QUIETREC_"
)

type Config struct {
	CalibrationDuration  time.Duration `validate:"gte=100ms,lte=30s"`
	CalibrationInterval  time.Duration `validate:"gte=10ms,lte=1s"`
	RecordingInterval    time.Duration `validate:"gte=10ms,lte=1s"`
	BatchSize            int           `validate:"gte=1,lte=600"`
	MinBaseline          int           `validate:"gte=0,lte=32767"`
	MaxBaselineThreshold int           `validate:"gtfield=MinBaseline,lte=32768"`
	MaxRecordingDuration time.Duration `validate:"gte=0"`
	BaselineReduction    string        `validate:"oneof=median mean"`

	OutputDir  string  `validate:"required"`
	Format     string  `validate:"oneof=flac wav"`
	SampleRate int     `validate:"oneof=8000 16000 22050 44100 48000"`
	Gain       float64 `validate:"gt=0,lte=32"`
	Device     string
	Hotkey     string `validate:"required"`
	CopyPath   bool
	Beep       bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a Config with every option at its default.
func Default() *Config {
	return &Config{
		CalibrationDuration:  DefaultCalibrationDuration,
		CalibrationInterval:  DefaultCalibrationInterval,
		RecordingInterval:    DefaultRecordingInterval,
		BatchSize:            DefaultBatchSize,
		MinBaseline:          DefaultMinBaseline,
		MaxBaselineThreshold: DefaultMaxBaselineThreshold,
		MaxRecordingDuration: DefaultMaxRecordingDuration,
		BaselineReduction:    DefaultReduction,
		OutputDir:            defaultOutputDir(),
		Format:               DefaultFormat,
		SampleRate:           DefaultSampleRate,
		Gain:                 1,
		Hotkey:               DefaultHotkey,
		Beep:                 true,
	}
}

func defaultOutputDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Recordings")
	}
	return "."
}

// RegisterFlags binds every option to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.DurationVar(&c.CalibrationDuration, "calibration", c.CalibrationDuration, "Ambient noise calibration window")
	fs.DurationVar(&c.CalibrationInterval, "calibration-interval", c.CalibrationInterval, "Sampling interval during calibration")
	fs.DurationVar(&c.RecordingInterval, "interval", c.RecordingInterval, "Sampling interval while recording")
	fs.IntVar(&c.BatchSize, "batch", c.BatchSize, "Ticks per silence check (1 = check every tick)")
	fs.IntVar(&c.MinBaseline, "min-baseline", c.MinBaseline, "Lowest allowed noise floor (peak amplitude)")
	fs.IntVar(&c.MaxBaselineThreshold, "max-baseline", c.MaxBaselineThreshold, "Noise floor at which the room is too noisy to record")
	fs.DurationVar(&c.MaxRecordingDuration, "max", c.MaxRecordingDuration, "Hard cap on recording length (0 = no cap)")
	fs.StringVar(&c.BaselineReduction, "reduction", c.BaselineReduction, "Calibration reduction: median or mean")
	fs.StringVar(&c.OutputDir, "out", c.OutputDir, "Directory for recordings")
	fs.StringVar(&c.Format, "format", c.Format, "Recording format: flac or wav")
	fs.IntVar(&c.SampleRate, "rate", c.SampleRate, "Capture sample rate in Hz")
	fs.Float64Var(&c.Gain, "gain", c.Gain, "Input gain applied before metering")
	fs.StringVar(&c.Device, "device", c.Device, "Use named microphone device")
	fs.StringVar(&c.Hotkey, "hotkey", c.Hotkey, "Record toggle hotkey (e.g. ctrl+shift+space, ctrl+alt+r)")
	fs.BoolVar(&c.CopyPath, "copypath", c.CopyPath, "Copy the saved recording path to the clipboard")
	fs.BoolVar(&c.Beep, "beep", c.Beep, "Play audio cues on state changes")
}

// ApplyEnv overrides options from QUIETREC_* variables, e.g.
// QUIETREC_BATCH=10 or QUIETREC_MAX=6s. Malformed values are reported.
func (c *Config) ApplyEnv() error {
	var errs []error
	durations := map[string]*time.Duration{
		"CALIBRATION":          &c.CalibrationDuration,
		"CALIBRATION_INTERVAL": &c.CalibrationInterval,
		"INTERVAL":             &c.RecordingInterval,
		"MAX":                  &c.MaxRecordingDuration,
	}
	for key, dst := range durations {
		if v, ok := lookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				continue
			}
			*dst = d
		}
	}
	ints := map[string]*int{
		"BATCH":        &c.BatchSize,
		"MIN_BASELINE": &c.MinBaseline,
		"MAX_BASELINE": &c.MaxBaselineThreshold,
		"RATE":         &c.SampleRate,
	}
	for key, dst := range ints {
		if v, ok := lookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				continue
			}
			*dst = n
		}
	}
	strs := map[string]*string{
		"REDUCTION": &c.BaselineReduction,
		"OUT":       &c.OutputDir,
		"FORMAT":    &c.Format,
		"DEVICE":    &c.Device,
		"HOTKEY":    &c.Hotkey,
	}
	for key, dst := range strs {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}
	return errors.Join(errs...)
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate checks every option and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, e := range verrs {
			errs = append(errs, fmt.Errorf("%s: %s", e.Field(), formatValidationMessage(e)))
		}
	}
	if c.CalibrationDuration < c.CalibrationInterval {
		errs = append(errs, fmt.Errorf("CalibrationDuration: must be at least CalibrationInterval (%s)", c.CalibrationInterval))
	}
	return errors.Join(errs...)
}

func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// Calibration returns the calibration window settings.
func (c *Config) Calibration() calibration.Config {
	r, err := calibration.ParseReduction(c.BaselineReduction)
	if err != nil {
		r = calibration.Median
	}
	return calibration.Config{
		Duration:    c.CalibrationDuration,
		Interval:    c.CalibrationInterval,
		MinBaseline: c.MinBaseline,
		MaxBaseline: c.MaxBaselineThreshold,
		Reduction:   r,
	}
}

// Recorder returns the controller settings.
func (c *Config) Recorder() recorder.Config {
	return recorder.Config{
		Calibration:       c.Calibration(),
		RecordingInterval: c.RecordingInterval,
		BatchSize:         c.BatchSize,
	}
}

// Destination names a new recording file inside OutputDir, down to the
// millisecond.
func (c *Config) Destination(now time.Time) string {
	name := fmt.Sprintf("recording-%s-%03d", now.Format("20060102-150405"), now.Nanosecond()/int(time.Millisecond))
	return filepath.Join(c.OutputDir, name+"."+c.Format)
}

// NextDestination is Destination with a -N suffix added while the name is
// already taken on disk.
func (c *Config) NextDestination(now time.Time) string {
	path := c.Destination(now)
	base := strings.TrimSuffix(path, "."+c.Format)
	for n := 1; exists(path); n++ {
		path = fmt.Sprintf("%s-%d.%s", base, n, c.Format)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
