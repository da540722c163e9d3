package logparse

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"
)

// ErrNotCompressed is returned when data is neither gzip, zip, nor raw
// JSON text.
var ErrNotCompressed = errors.New("logparse: unable to decompress data (tried gzip, zip, raw text)")

// Entry is one audit log record paired with its exact original JSON.
//
// Raw is the compacted source object with its key order preserved, so
// exports round-trip without serialization artifacts.
type Entry struct {
	Raw string
}

// Decompress decodes a downloaded log file, trying gzip first, then zip
// (all archive entries concatenated newline-joined in archive order), and
// finally raw UTF-8 text. Raw text is accepted only if the trimmed content
// starts with '{' or '[', as a heuristic that it actually is JSON.
func Decompress(data []byte) (string, error) {
	if gr, err := gzip.NewReader(bytes.NewReader(data)); err == nil {
		text, err := io.ReadAll(gr)
		gr.Close()
		if err == nil {
			return string(text), nil
		}
	}

	if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		var parts []string
		ok := true
		for _, f := range zr.File {
			rc, err := f.Open()
			if err != nil {
				ok = false
				break
			}
			part, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				ok = false
				break
			}
			parts = append(parts, string(part))
		}
		if ok {
			return strings.Join(parts, "\n"), nil
		}
	}

	if utf8.Valid(data) {
		text := string(data)
		trimmed := strings.TrimSpace(text)
		if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') {
			log.Debug().Msg("data appears to be uncompressed text")
			return text, nil
		}
	}

	return "", ErrNotCompressed
}

// splitObjects splits decoded text into raw JSON values.
//
// A leading '[' is parsed as one JSON array; on failure (or for any other
// content) the text is treated as NDJSON, skipping lines that fail to
// parse while keeping the rest in order.
func splitObjects(text string) []json.RawMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "[") {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(text), &arr); err == nil {
			return arr
		}
	}

	var objects []json.RawMessage
	for lineNum, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			log.Warn().
				Int("line", lineNum+1).
				Msg("skipping malformed JSON line")
			continue
		}
		objects = append(objects, json.RawMessage(line))
	}
	return objects
}

// ParseFile decompresses and parses a single downloaded log file.
//
// Each kept entry carries the original object compacted with its source
// key order intact. Values that are not JSON objects are skipped with a
// diagnostic; they do not fail the rest of the file.
func ParseFile(data []byte) ([]Entry, error) {
	text, err := Decompress(data)
	if err != nil {
		return nil, err
	}

	var p fastjson.Parser
	var entries []Entry
	for i, raw := range splitObjects(text) {
		v, err := p.ParseBytes(raw)
		if err != nil || v.Type() != fastjson.TypeObject {
			log.Warn().
				Int("index", i).
				Str("data", truncate(string(raw), 200)).
				Msg("skipping unparseable log entry")
			continue
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			log.Warn().
				Int("index", i).
				Err(err).
				Msg("skipping log entry that failed to compact")
			continue
		}
		entries = append(entries, Entry{Raw: compact.String()})
	}
	return entries, nil
}

// ParseFiles parses multiple downloaded log files into a combined entry
// list. A hard failure on one file is logged and does not prevent the
// remaining files from contributing entries.
func ParseFiles(files [][]byte) []Entry {
	var all []Entry
	for i, data := range files {
		entries, err := ParseFile(data)
		if err != nil {
			log.Warn().
				Int("file", i).
				Err(err).
				Msg("failed to process log file")
			continue
		}
		all = append(all, entries...)
	}
	return all
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
