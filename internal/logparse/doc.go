// Package logparse turns downloaded audit-log files into individual
// record entries.
//
// Each file from the API is expected to be compressed NDJSON, but the
// format varies in practice: gzip single streams, zip archives, plain
// text, and occasionally a single JSON array instead of line-delimited
// objects. The decompression chain and the parser both degrade per item
// rather than failing a whole file.
//
// Every kept entry preserves the exact original JSON object (compacted,
// source key order intact) so that later exports are byte-faithful to
// what the API returned.
package logparse
