package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/glassd/unqork-audit-logs/internal/cache"
	"github.com/glassd/unqork-audit-logs/internal/display"
)

// runList prints cached entries matching the given filters, newest
// first, with pagination.
func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	filters := addFilterFlags(fs)
	limit := fs.Int("limit", 50, "Maximum entries to show")
	offset := fs.Int("offset", 0, "Number of entries to skip")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: unqork-logs list [options]

List cached audit log entries, newest first. String filters are
case-insensitive substring matches.

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
	filter.Offset = *offset

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}
	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	ctx := context.Background()
	entries, err := store.QueryEntries(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying cache: %v\n", err)
		return ExitStorageError
	}
	total, err := store.CountEntries(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting entries: %v\n", err)
		return ExitStorageError
	}

	display.EntriesTable(os.Stdout, entries, total, *offset)
	return ExitSuccess
}

// runShow prints one entry in full, looked up by its ID or a unique
// ID prefix.
func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: unqork-logs show [options] <id>

Show one cached entry: its indexed fields and full original payload.
The ID may be abbreviated to any unique prefix.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one entry ID is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	id := fs.Arg(0)

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}
	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	entry, err := store.GetEntryByPrefix(context.Background(), id)
	if err != nil {
		var ambiguous *cache.AmbiguousIDError
		switch {
		case errors.As(err, &ambiguous):
			fmt.Fprintf(os.Stderr, "ID prefix %q matches multiple entries:\n", id)
			for _, m := range ambiguous.Matches {
				fmt.Fprintf(os.Stderr, "  %s  %s  %s\n", m.ID, m.Timestamp, m.Action)
			}
			return ExitInvalidArgs
		case errors.Is(err, cache.ErrNotFound):
			fmt.Fprintf(os.Stderr, "No entry found for ID %q\n", id)
			return ExitNotFound
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
	}

	display.EntryDetail(os.Stdout, entry)
	return ExitSuccess
}
