package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"quietrec/audio"
	"quietrec/beep"
	"quietrec/config"
	"quietrec/doctor"
	"quietrec/encoder"
	"quietrec/hotkey"
	"quietrec/log"
	"quietrec/looper"
	"quietrec/shutdown"
)

var version = "dev"

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "play" {
		os.Exit(runPlay(os.Args[2:]))
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	cfg.RegisterFlags(flag.CommandLine)

	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	verboseFlag := flag.Bool("verbose", false, "Log every silence check")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.String("test", "", "Test mode: replay this WAV or FLAC file as the microphone (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("quietrec %s\n", version)
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(2)
	}
	binding, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if !cfg.Beep {
		beep.Disable()
	}

	log.SetVerbose(*verboseFlag)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *testFlag != "" {
		code := runTestMode(cfg, *testFlag)
		log.Close()
		os.Exit(code)
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Device != "" {
		selectedDevice, err = audio.FindDevice(actx, cfg.Device)
		if err != nil {
			log.Warnf("device not found: %s", cfg.Device)
			fmt.Printf("Warning: %v, using system default\n", err)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, stopSignals := shutdown.WithSignals(ctx)
	defer stopSignals()

	loop := looper.New()
	var sink EventSink = consoleSink{w: os.Stdout}
	if *tuiFlag {
		sink = tuiSink{}
	}
	mic := audio.NewMicrophone(actx, selectedDevice, audio.CaptureConfig{
		SampleRate: uint32(cfg.SampleRate),
		Channels:   encoder.Channels,
		Gain:       cfg.Gain,
	},
		audio.WithMaxDuration(cfg.MaxRecordingDuration),
		audio.WithLevelMeter(sink.Level),
	)
	a := newApp(cfg, loop, mic, sink)

	if *tuiFlag {
		onPlay := func() {
			loop.Post(func() {
				if path := a.LastRecording(); path != "" {
					go func() {
						if err := playFile(ctx, path); err != nil {
							log.Warnf("playback: %v", err)
						}
					}()
				}
			})
		}
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(binding.String(), func() { loop.Post(a.toggle) }, onPlay)
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			cancel()
		}()
		tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})
	} else {
		fmt.Printf("quietrec %s: press %s to record, Ctrl+C to quit\n", version, binding)
	}

	go beep.Init()

	hk := hotkey.New(binding)
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		if !*tuiFlag {
			fmt.Printf("Error registering hotkey: %v\n", err)
			os.Exit(1)
		}
	} else {
		defer hk.Unregister()
		go forwardHotkey(ctx, hk, loop, a.toggle)
	}

	loop.Run(ctx)

	// The loop has stopped, so this goroutine is the only one touching a.
	a.shutdown()
	loop.Close()
	tuiMu.Lock()
	if tuiProgram != nil {
		tuiProgram.Quit()
	}
	tuiMu.Unlock()
}

// forwardHotkey posts toggle to the loop on every chord press.
func forwardHotkey(ctx context.Context, hk hotkey.Hotkey, loop looper.Scheduler, toggle func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			log.Info("hotkey_down")
			loop.Post(toggle)
		}
	}
}
