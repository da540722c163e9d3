// Package summary computes aggregate statistics over cached audit log
// entries: totals, time range, per-dimension breakdowns and failure
// analysis.
package summary
