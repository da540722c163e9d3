// Package fetcher plans and runs incremental audit-log fetches.
//
// A date range is split into contiguous windows of at most one hour,
// each identified by the exact boundary strings sent to the API.
// Windows already present in the cache's ledger are skipped; the rest
// are resolved, downloaded, parsed and stored one window at a time.
// Per-window failures are collected into the aggregate Progress and
// never abort the remaining windows.
package fetcher
