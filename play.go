package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quietrec/audio"
	"quietrec/encoder"
	"quietrec/log"
	"quietrec/shutdown"
)

// runPlay implements "quietrec play [file]". Without a file it plays the most
// recent entry of the recordings log.
func runPlay(args []string) int {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	logPathFlag := fs.String("logpath", "", "log directory path (default: OS-specific location)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := fs.Arg(0)
	if path == "" {
		dir, err := log.ResolveDir(*logPathFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if path, err = lastRecording(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()
	fmt.Printf("Playing %s\n", path)
	if err := playFile(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func playFile(ctx context.Context, path string) error {
	samples, rate, err := encoder.Decode(path)
	if err != nil {
		return err
	}
	return audio.Play(ctx, samples, rate)
}

// lastRecording reads the newest path from recordings_log.txt in dir.
func lastRecording(dir string) (string, error) {
	f, err := os.Open(filepath.Join(dir, "recordings_log.txt"))
	if err != nil {
		return "", fmt.Errorf("no recordings yet: %w", err)
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if last == "" {
		return "", errors.New("no recordings yet")
	}
	fields := strings.Split(last, "\t")
	return fields[len(fields)-1], nil
}
