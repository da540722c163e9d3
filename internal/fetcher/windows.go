package fetcher

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The API takes ISO 8601 UTC boundaries with milliseconds. Windows are
// aligned to whole seconds, so the millisecond part is a literal zero.
const apiTimeLayout = "2006-01-02T15:04:05"

// Window is one fetch unit: a time interval of at most one hour, held
// as the exact boundary strings used both as the ledger key and as the
// API's startDatetime/endDatetime parameters.
type Window struct {
	Start string
	End   string
}

// FormatAPITime renders an instant in the API's boundary format.
func FormatAPITime(t time.Time) string {
	return t.UTC().Format(apiTimeLayout) + ".000Z"
}

// Windows splits [start, end) into contiguous windows of at most one
// hour. The final window is shorter when the range is not an exact
// multiple. start >= end yields no windows.
func Windows(start, end time.Time) []Window {
	var windows []Window
	current := start
	for current.Before(end) {
		windowEnd := current.Add(time.Hour)
		if windowEnd.After(end) {
			windowEnd = end
		}
		windows = append(windows, Window{
			Start: FormatAPITime(current),
			End:   FormatAPITime(windowEnd),
		})
		current = windowEnd
	}
	return windows
}

var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimeInput parses a user-supplied time string. It accepts full
// ISO 8601 with zone, date plus time, and bare dates; values without a
// zone are taken as UTC.
func ParseTimeInput(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"fetcher: cannot parse time %q (expected forms like 2025-02-17, 2025-02-17 09:00, or 2025-02-17T09:00:00.000Z)",
		value)
}

// ParseRelative parses a relative range like "24h", "7d" or "30m" and
// returns (now-delta, now) in UTC.
func ParseRelative(value string) (start, end time.Time, err error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if len(v) < 2 {
		return time.Time{}, time.Time{}, relativeErr(value)
	}

	n, convErr := strconv.Atoi(v[:len(v)-1])
	if convErr != nil || n < 0 {
		return time.Time{}, time.Time{}, relativeErr(value)
	}

	var delta time.Duration
	switch v[len(v)-1] {
	case 'h':
		delta = time.Duration(n) * time.Hour
	case 'd':
		delta = time.Duration(n) * 24 * time.Hour
	case 'm':
		delta = time.Duration(n) * time.Minute
	default:
		return time.Time{}, time.Time{}, relativeErr(value)
	}

	now := time.Now().UTC()
	return now.Add(-delta), now, nil
}

func relativeErr(value string) error {
	return fmt.Errorf("fetcher: cannot parse relative time %q (use forms like 24h, 7d, or 30m)", value)
}
