package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitStorageError = 5
	ExitNotFound     = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs)
	case "list":
		return runList(cmdArgs)
	case "show":
		return runShow(cmdArgs)
	case "export":
		return runExport(cmdArgs)
	case "summary":
		return runSummary(cmdArgs)
	case "cache":
		return runCache(cmdArgs)
	case "check":
		return runCheck(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: unqork-logs <command> [options]

Commands:
  fetch     Fetch audit logs for a date range into the local cache
  list      List cached log entries with filters
  show      Show one cached entry by ID or ID prefix
  export    Export cached entries to JSON, JSONL or CSV
  summary   Aggregate statistics over cached entries
  cache     Inspect or clear the local cache (info, windows, clear)
  check     Verify configuration and authentication

Run 'unqork-logs <command> -h' for command-specific help.`)
}

// setupLogging configures the global zerolog logger. Verbose enables
// debug level with human-readable console output on stderr.
func setupLogging(verbose bool) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
