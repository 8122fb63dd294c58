package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/tally/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override tally config path (optional)")
	backendName := flag.String("backend", "", "select the storage backend: local, s3 or sqlite (optional)")
	headless := flag.Bool("headless", false, "start without the terminal UI and print a summary")
	resetLaunches := flag.Bool("reset-launches", false, "reset the launch counter before starting")
	listFiles := flag.Bool("list", false, "with -headless, list stored paths once ready")
	retries := flag.Int("retries", 0, "with -headless, retry a failed startup this many times")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:    *configPath,
		Backend:       *backendName,
		ResetLaunches: *resetLaunches,
		Headless:      *headless,
		ListFiles:     *listFiles,
		Retries:       max(*retries, 0),
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		return 1
	}
	return 0
}
