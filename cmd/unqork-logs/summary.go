package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/glassd/unqork-audit-logs/internal/display"
	"github.com/glassd/unqork-audit-logs/internal/summary"
)

// runSummary aggregates matching cached entries into breakdown tables.
func runSummary(args []string) int {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)

	filters := addFilterFlags(fs)
	limit := fs.Int("limit", 100000, "Maximum entries to aggregate")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: unqork-logs summary [options]

Aggregate statistics over cached entries: totals, time range,
per-category and per-action breakdowns, top actors and IPs, and
failure analysis. Filters narrow the aggregated set.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	filter, err := filters.build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	filter.Limit = *limit

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}
	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	entries, err := store.QueryEntries(context.Background(), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying cache: %v\n", err)
		return ExitStorageError
	}

	display.Summary(os.Stdout, summary.Compute(entries))
	return ExitSuccess
}
