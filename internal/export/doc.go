// Package export serializes cached audit log entries to JSON, JSONL
// and CSV, writing to stdout, a local file, or a blob bucket.
package export
