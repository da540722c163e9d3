// Package cache is the local SQLite store for fetched audit logs.
//
// It holds two tables: log_entries, keyed by a content hash of each
// record's exact original payload, and fetched_windows, the ledger of
// which one-hour windows have already been retrieved. The content-hash
// key makes storing a window idempotent (INSERT OR IGNORE dedup), and
// the ledger makes multi-run fetches over the same range incremental.
//
// Indexed columns are extracted from the raw payload with a tolerant
// tree walk rather than a strict schema, so a record with missing or
// oddly-typed nested fields still lands in the cache with empty-string
// columns instead of being dropped.
//
// One writer process at a time is assumed (a single-operator CLI);
// queries may run concurrently when nothing is writing.
package cache
