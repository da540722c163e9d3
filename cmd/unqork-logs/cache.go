package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/glassd/unqork-audit-logs/internal/display"
)

// runCache dispatches the cache subcommands: info (default), windows,
// and clear.
func runCache(args []string) int {
	sub := "info"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "info":
		return runCacheInfo(args)
	case "windows":
		return runCacheWindows(args)
	case "clear":
		return runCacheClear(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown cache subcommand: %s\n", sub)
		fmt.Fprintln(os.Stderr, "Usage: unqork-logs cache [info|windows|clear] [options]")
		return ExitInvalidArgs
	}
}

func runCacheInfo(args []string) int {
	fs := flag.NewFlagSet("cache info", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}
	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	stats, err := store.GetStats(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cache stats: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(os.Stdout, "Cache database: %s\n\n", cfg.CacheDBPath())
	display.CacheStats(os.Stdout, stats)
	return ExitSuccess
}

func runCacheWindows(args []string) int {
	fs := flag.NewFlagSet("cache windows", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}
	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	windows, err := store.FetchedWindows(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing windows: %v\n", err)
		return ExitStorageError
	}

	display.WindowsTable(os.Stdout, windows)
	return ExitSuccess
}

func runCacheClear(args []string) int {
	fs := flag.NewFlagSet("cache clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	cfg, ok := loadConfig()
	if !ok {
		return ExitConfigError
	}
	store, ok := openStore(cfg)
	if !ok {
		return ExitStorageError
	}
	defer store.Close()

	if !*yes {
		fmt.Fprint(os.Stderr, "This deletes all cached entries and fetch history. Continue? [y/N] ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return ExitSuccess
		}
	}

	if err := store.Clear(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
		return ExitStorageError
	}
	fmt.Fprintln(os.Stdout, "Cache cleared.")
	return ExitSuccess
}
