package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glassd/unqork-audit-logs/internal/display"
	"github.com/glassd/unqork-audit-logs/internal/fetcher"
)

// runFetch downloads audit logs for a date range into the local cache,
// skipping windows that are already cached.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	startFlag := fs.String("start", "", "Range start (e.g. 2025-02-17 or 2025-02-17T09:00:00.000Z)")
	endFlag := fs.String("end", "", "Range end (default: now)")
	last := fs.String("last", "", "Relative range ending now (e.g. 24h, 7d, 30m)")
	quiet := fs.Bool("quiet", false, "Suppress per-window progress output")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: unqork-logs fetch [options]

Fetch audit logs for a date range into the local cache. Already-cached
one-hour windows are skipped, so re-running over the same range only
downloads what is missing.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	var start, end time.Time
	switch {
	case *last != "":
		if *startFlag != "" || *endFlag != "" {
			fmt.Fprintln(os.Stderr, "Error: -last cannot be combined with -start/-end")
			return ExitInvalidArgs
		}
		var err error
		start, end, err = fetcher.ParseRelative(*last)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	case *startFlag != "":
		var err error
		start, err = fetcher.ParseTimeInput(*startFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		end = time.Now().UTC()
		if *endFlag != "" {
			end, err = fetcher.ParseTimeInput(*endFlag)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitInvalidArgs
			}
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: either -start or -last is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	if !start.Before(end) {
		fmt.Fprintln(os.Stderr, "Error: range start must be before range end")
		return ExitInvalidArgs
	}

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}

	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing current window...")
		cancel()
	}()

	var observer fetcher.Observer
	if !*quiet {
		observer = display.NewFetchProgress(os.Stderr, len(fetcher.Windows(start, end)))
	}

	progress := fetcher.New(newAPIClient(cfg), store, observer).Run(ctx, start, end)

	fmt.Fprintln(os.Stdout)
	display.FetchSummary(os.Stdout, progress)

	if len(progress.Errors) > 0 {
		return ExitGeneralError
	}
	return ExitSuccess
}
