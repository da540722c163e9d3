package logparse

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func gzipData(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(text)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func zipData(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"part1.ndjson", "part2.ndjson"} {
		text, ok := entries[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(text)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressGzip(t *testing.T) {
	text, err := Decompress(gzipData(t, `{"a":1}`))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if text != `{"a":1}` {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestDecompressZip(t *testing.T) {
	data := zipData(t, map[string]string{
		"part1.ndjson": `{"a":1}`,
		"part2.ndjson": `{"b":2}`,
	})

	text, err := Decompress(data)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if text != "{\"a\":1}\n{\"b\":2}" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestDecompressRawText(t *testing.T) {
	text, err := Decompress([]byte("  {\"a\":1}\n"))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if text != "  {\"a\":1}\n" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	garbage := []byte{0x01, 0x02, 0xfe, 0xff, 0x10, 0x99, 0x42}
	if _, err := Decompress(garbage); err != ErrNotCompressed {
		t.Errorf("expected ErrNotCompressed, got %v", err)
	}
}

func TestDecompressRejectsPlainProse(t *testing.T) {
	if _, err := Decompress([]byte("hello, this is not JSON")); err != ErrNotCompressed {
		t.Errorf("expected ErrNotCompressed for non-JSON text, got %v", err)
	}
}

func TestParseFileNDJSON(t *testing.T) {
	ndjson := "{\"action\":\"login\"}\nnot json at all\n{\"action\":\"logout\"}\n"
	entries, err := ParseFile(gzipData(t, ndjson))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Raw != `{"action":"login"}` {
		t.Errorf("unexpected first entry: %q", entries[0].Raw)
	}
	if entries[1].Raw != `{"action":"logout"}` {
		t.Errorf("unexpected second entry: %q", entries[1].Raw)
	}
}

func TestParseFileJSONArray(t *testing.T) {
	entries, err := ParseFile([]byte(`[{"a":1},{"b":2}]`))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Raw != `{"b":2}` {
		t.Errorf("unexpected second entry: %q", entries[1].Raw)
	}
}

func TestParseFilePreservesKeyOrder(t *testing.T) {
	// Keys deliberately out of lexical order; the compacted payload must
	// keep them exactly as they appeared.
	src := "{\"zebra\": 1,  \"alpha\": {\"m\": true, \"a\": null}, \"mid\": \"x\"}"
	entries, err := ParseFile([]byte(src))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := `{"zebra":1,"alpha":{"m":true,"a":null},"mid":"x"}`
	if entries[0].Raw != want {
		t.Errorf("key order not preserved:\n got %s\nwant %s", entries[0].Raw, want)
	}
}

func TestParseFileSkipsNonObjects(t *testing.T) {
	ndjson := "{\"ok\":true}\n123\n\"just a string\"\n{\"also\":\"ok\"}"
	entries, err := ParseFile([]byte(ndjson))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestParseFileEmpty(t *testing.T) {
	entries, err := ParseFile(gzipData(t, "\n\n"))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestParseFilesIsolatesFailures(t *testing.T) {
	files := [][]byte{
		gzipData(t, `{"a":1}`),
		{0xde, 0xad, 0xbe, 0xef},
		gzipData(t, `{"b":2}`),
	}
	entries := ParseFiles(files)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries from the good files, got %d", len(entries))
	}
}
