package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"quietrec/audio"
	"quietrec/beep"
	"quietrec/config"
	"quietrec/encoder"
	"quietrec/hotkey"
	"quietrec/log"
	"quietrec/looper"
)

// runTestMode replays path in real time as the microphone and reads commands
// from stdin:
//
//	START, STOP, KEYDOWN    begin, end or toggle a session
//	WAIT                    block until every session begun so far has stopped
//	WAIT_AUDIO_DONE         block until the whole file has been fed
//	SLEEP <ms>
//	QUIT
func runTestMode(cfg *config.Config, path string) int {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContext(path, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		return 1
	}
	return driveTestMode(cfg, fakeCtx, os.Stdin, os.Stdout)
}

func driveTestMode(cfg *config.Config, fakeCtx *audio.FakeContext, in io.Reader, out io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := looper.New()
	mic := audio.NewMicrophone(fakeCtx, nil, audio.CaptureConfig{
		SampleRate: uint32(fakeCtx.SampleRate()),
		Channels:   encoder.Channels,
		Gain:       cfg.Gain,
	}, audio.WithMaxDuration(cfg.MaxRecordingDuration))
	a := newApp(cfg, loop, mic, consoleSink{w: out})

	hk := hotkey.NewFake()
	go forwardHotkey(ctx, hk, loop, a.toggle)

	// Stdin driver in background. Quitting goes through the loop so commands
	// posted before QUIT still run.
	go func() {
		defer loop.Post(cancel)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch {
			case cmd == "START":
				loop.Post(a.begin)
			case cmd == "STOP":
				loop.Post(a.end)
			case cmd == "KEYDOWN":
				hk.SimKeydown()
			case cmd == "WAIT":
				var stopped <-chan struct{}
				loop.Call(func() { stopped = a.sessionsStopped() })
				waitStopped(ctx, stopped)
			case cmd == "WAIT_AUDIO_DONE":
				if c := fakeCtx.Current(); c != nil {
					select {
					case <-c.AudioDone():
					case <-ctx.Done():
					}
				}
			case cmd == "QUIT":
				return
			case strings.HasPrefix(cmd, "SLEEP "):
				if ms, err := strconv.Atoi(strings.TrimSpace(cmd[6:])); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			case cmd == "":
			default:
				log.Warnf("test mode: unknown command %q", cmd)
				loop.Post(func() { fmt.Fprintf(out, "ERROR unknown command %q\n", cmd) })
			}
		}
	}()

	loop.Run(ctx)
	a.shutdown()
	loop.Close()
	return 0
}

// waitStopped blocks until stopped closes. A nil channel means the loop is
// gone, so only ctx can end the wait.
func waitStopped(ctx context.Context, stopped <-chan struct{}) {
	select {
	case <-stopped:
	case <-ctx.Done():
	}
}
