package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/glassd/unqork-audit-logs/internal/export"
)

// runExport writes matching cached entries to a file, stdout, or an
// object-storage bucket.
func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	filters := addFilterFlags(fs)
	format := fs.String("format", "json", "Output format: json, jsonl, or csv")
	output := fs.String("output", "-", "Output file path, or - for stdout")
	bucket := fs.String("bucket", "", "Destination bucket URL (e.g. s3://my-bucket); overrides -output")
	key := fs.String("key", "", "Object key inside the bucket (required with -bucket)")
	limit := fs.Int("limit", 0, "Maximum entries to export (0 = store default)")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: unqork-logs export [options]

Export cached entries. JSON and JSONL emit each entry's exact original
payload; CSV flattens the indexed fields and omits the payload.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	f, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if *bucket != "" && *key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required with -bucket")
		return ExitInvalidArgs
	}

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

	ctx := context.Background()
	entries, err := store.QueryEntries(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying cache: %v\n", err)
		return ExitStorageError
	}

	var n int
	if *bucket != "" {
		bkt, err := blob.OpenBucket(ctx, *bucket)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
			return ExitStorageError
		}
		defer bkt.Close()

		n, err = export.WriteBucket(ctx, bkt, *key, entries, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
		fmt.Fprintf(os.Stderr, "Exported %d entries to %s/%s\n", n, *bucket, *key)
		return ExitSuccess
	}

	n, err = export.WriteFile(entries, f, *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	if *output != "-" {
		fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", n, *output)
	}
	return ExitSuccess
}
