// Package doctor checks that this machine can run a recording session.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quietrec/audio"
	"quietrec/calibration"
	"quietrec/clipboard"
	"quietrec/config"
	"quietrec/encoder"
	"quietrec/hotkey"
	"quietrec/looper"
	"quietrec/shutdown"
)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
// An interrupt abandons the remaining checks.
func Run(cfg *config.Config) int {
	resetTerminal()
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	fmt.Println("quietrec doctor - system diagnostics")
	fmt.Println("====================================")

	checks := []func(context.Context, *config.Config) bool{
		checkHotkey,
		checkCalibration,
		checkWrite,
		checkClipboard,
	}
	allPass := true
	for i, check := range checks {
		fmt.Println()
		fmt.Printf("[%d/%d] ", i+1, len(checks))
		if !check(ctx, cfg) {
			allPass = false
		}
		if ctx.Err() != nil {
			resetTerminal()
			fmt.Println("\nInterrupted")
			return 1
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(ctx context.Context, cfg *config.Config) bool {
	fmt.Println("Hotkey detection")

	b, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	msg, err := hotkey.Diagnose(b)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)
	fmt.Printf("Press %s...\n", b)

	hk := hotkey.New(b)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	case <-ctx.Done():
		return false
	}
}

func checkCalibration(ctx context.Context, cfg *config.Config) bool {
	fmt.Println("Microphone noise floor")

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	var device *audio.DeviceInfo
	if cfg.Device != "" {
		if device, err = audio.FindDevice(actx, cfg.Device); err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return false
		}
	}

	mic := audio.NewMicrophone(actx, device, audio.CaptureConfig{
		SampleRate: uint32(cfg.SampleRate),
		Gain:       cfg.Gain,
	}, audio.WithSink(func(string, int) (encoder.Encoder, error) { return &encoder.Discard{}, nil }))

	fmt.Printf("Stay quiet for %s (%s)...\n", cfg.CalibrationDuration, mic.DeviceName())
	if audio.IsBluetooth(mic.DeviceName()) {
		fmt.Println("  Warning: bluetooth microphones usually report a higher noise floor")
	}

	result, err := calibrate(ctx, mic, cfg.Calibration())
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if result.Empty {
		fmt.Println("  FAIL: microphone produced no readings")
		return false
	}
	fmt.Printf("  baseline %d from %d readings (range %d-%d)\n",
		result.Baseline, len(result.Samples), result.Samples[0], result.Samples[len(result.Samples)-1])
	if !result.Proceed {
		fmt.Printf("  FAIL: too noisy, baseline must stay below %d\n", cfg.MaxBaselineThreshold)
		return false
	}
	fmt.Println("  PASS: room is quiet enough to record")
	return true
}

// calibrate runs one calibration window on its own loop.
func calibrate(ctx context.Context, mic *audio.Microphone, cc calibration.Config) (calibration.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, cc.Duration+5*time.Second)
	defer cancel()

	loop := looper.New()
	defer loop.Close()
	go loop.Run(ctx)

	if err := mic.Start(""); err != nil {
		return calibration.Result{}, err
	}
	defer mic.Release()

	results := make(chan calibration.Result, 1)
	loop.Call(func() {
		calibration.NewWindow(loop, mic, cc, func(r calibration.Result) { results <- r }).Start()
	})

	select {
	case r := <-results:
		return r, nil
	case <-ctx.Done():
		return calibration.Result{}, fmt.Errorf("calibration did not finish: %w", ctx.Err())
	}
}

func checkWrite(_ context.Context, cfg *config.Config) bool {
	fmt.Println("Recording output")

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Printf("  FAIL: cannot create %s: %v\n", cfg.OutputDir, err)
		return false
	}
	path := filepath.Join(cfg.OutputDir, ".quietrec-doctor."+cfg.Format)
	os.Remove(path)
	defer os.Remove(path)

	enc, err := encoder.Create(path, cfg.SampleRate)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	block := make([]int16, cfg.SampleRate)
	for i := range block {
		block[i] = int16(i%64 - 32)
	}
	if err := enc.EncodeBlock(block); err != nil {
		enc.Close()
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if err := enc.Close(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	samples, rate, err := encoder.Decode(path)
	if err != nil {
		fmt.Printf("  FAIL: cannot read back %s: %v\n", path, err)
		return false
	}
	if rate != cfg.SampleRate || len(samples) != len(block) {
		fmt.Printf("  FAIL: read back %d samples at %d Hz, wrote %d at %d Hz\n", len(samples), rate, len(block), cfg.SampleRate)
		return false
	}
	fmt.Printf("  PASS: %s recordings can be written to %s\n", cfg.Format, cfg.OutputDir)
	return true
}

func checkClipboard(ctx context.Context, cfg *config.Config) bool {
	fmt.Println("Clipboard")

	if !cfg.CopyPath {
		fmt.Println("  SKIP: -copypath not enabled")
		return true
	}

	testStr := fmt.Sprintf("quietrec-doctor-%d", time.Now().UnixNano())
	type cbResult struct {
		readback string
		err      error
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err}
			return
		}
		got, err := clipboard.Read()
		ch <- cbResult{readback: got, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			fmt.Printf("  FAIL: %v\n", r.err)
			return false
		}
		if r.readback != testStr {
			fmt.Printf("  FAIL: read back %q, want %q\n", r.readback, testStr)
			return false
		}
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out")
		return false
	case <-ctx.Done():
		return false
	}
	fmt.Println("  PASS: clipboard copy verified")
	return true
}
