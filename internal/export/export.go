package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"

	"github.com/glassd/unqork-audit-logs/internal/cache"
)

// Format is an export serialization format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatJSONL, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("export: unsupported format %q (use json, jsonl, or csv)", s)
}

// csvColumns is the flattened column set for CSV export. The raw
// payload is deliberately not a column.
var csvColumns = []string{
	"id", "timestamp", "date", "event_type", "category", "action",
	"source", "outcome_type", "actor_type", "actor_id", "environment",
	"client_ip", "host", "session_id", "object_type",
}

// Render serializes entries in the given format.
//
// JSON and JSONL emit each entry's stored original payload, so exports
// are byte-faithful to the source objects' field sets: no derived or
// added fields. CSV flattens the indexed columns instead and excludes
// the payload.
func Render(entries []cache.Entry, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return renderJSON(entries)
	case FormatJSONL:
		return renderJSONL(entries)
	case FormatCSV:
		return renderCSV(entries)
	}
	return nil, fmt.Errorf("export: unsupported format %q", format)
}

func renderJSON(entries []cache.Entry) ([]byte, error) {
	payloads := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if !json.Valid([]byte(e.Raw)) {
			log.Warn().Str("id", e.ID).Msg("skipping entry with invalid stored payload")
			continue
		}
		payloads = append(payloads, json.RawMessage(e.Raw))
	}

	out, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal JSON: %w", err)
	}
	return append(out, '\n'), nil
}

func renderJSONL(entries []cache.Entry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		var line bytes.Buffer
		if err := json.Compact(&line, []byte(e.Raw)); err != nil {
			log.Warn().Str("id", e.ID).Msg("skipping entry with invalid stored payload")
			continue
		}
		buf.Write(line.Bytes())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func renderCSV(entries []cache.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, fmt.Errorf("export: write CSV header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.ID, e.Timestamp, e.Date, e.EventType, e.Category, e.Action,
			e.Source, e.OutcomeType, e.ActorType, e.ActorID, e.Environment,
			e.ClientIP, e.Host, e.SessionID, e.ObjectType,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export: write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders entries and writes them to path, or to stdout when
// path is "-". Returns the number of entries exported.
func WriteFile(entries []cache.Entry, format Format, path string) (int, error) {
	content, err := Render(entries, format)
	if err != nil {
		return 0, err
	}

	if path == "-" {
		if _, err := os.Stdout.Write(content); err != nil {
			return 0, fmt.Errorf("export: write stdout: %w", err)
		}
		return len(entries), nil
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return 0, fmt.Errorf("export: write %s: %w", path, err)
	}
	return len(entries), nil
}

// WriteBucket renders entries and stores them under key in an already
// opened bucket.
func WriteBucket(ctx context.Context, bkt *blob.Bucket, key string, entries []cache.Entry, format Format) (int, error) {
	content, err := Render(entries, format)
	if err != nil {
		return 0, err
	}
	if err := bkt.WriteAll(ctx, key, content, nil); err != nil {
		return 0, fmt.Errorf("export: write %s to bucket: %w", key, err)
	}
	return len(entries), nil
}
