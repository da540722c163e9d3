package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/glassd/unqork-audit-logs/internal/cache"
	"github.com/glassd/unqork-audit-logs/internal/fetcher"
	"github.com/glassd/unqork-audit-logs/internal/summary"
)

// EntriesTable renders a page of entries with pagination info.
func EntriesTable(w io.Writer, entries []cache.Entry, totalCount int64, offset int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No log entries found matching the criteria.")
		return
	}

	fmt.Fprintf(w, "Audit log entries (%d-%d of %d)\n\n",
		offset+1, offset+len(entries), totalCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tCATEGORY\tACTION\tACTOR\tOUTCOME\tIP")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), shortTimestamp(e.Timestamp), e.Category,
			e.Action, e.ActorID, e.OutcomeType, e.ClientIP)
	}
	tw.Flush()

	if remaining := totalCount - int64(offset) - int64(len(entries)); remaining > 0 {
		fmt.Fprintf(w, "\n... %d more entries. Use -offset %d to see more.\n",
			remaining, offset+len(entries))
	}
}

// EntryDetail renders one entry: its indexed fields followed by the
// pretty-printed original payload.
func EntryDetail(w io.Writer, e cache.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "Timestamp:\t%s\n", e.Timestamp)
	fmt.Fprintf(tw, "Category:\t%s\n", e.Category)
	fmt.Fprintf(tw, "Action:\t%s\n", e.Action)
	fmt.Fprintf(tw, "Actor:\t%s\n", e.ActorID)
	fmt.Fprintf(tw, "Outcome:\t%s\n", e.OutcomeType)
	fmt.Fprintf(tw, "Environment:\t%s\n", e.Environment)
	fmt.Fprintf(tw, "Client IP:\t%s\n", e.ClientIP)
	fmt.Fprintf(tw, "Source:\t%s\n", e.Source)
	fmt.Fprintf(tw, "Window:\t%s\n", e.WindowStart)
	tw.Flush()

	fmt.Fprintln(w)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(e.Raw), "", "  "); err == nil {
		fmt.Fprintln(w, pretty.String())
	} else {
		fmt.Fprintln(w, e.Raw)
	}
}

// CacheStats renders the cache's aggregate statistics.
func CacheStats(w io.Writer, stats cache.Stats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total entries:\t%d\n", stats.TotalEntries)
	fmt.Fprintf(tw, "Fetched windows:\t%d\n", stats.TotalWindows)
	fmt.Fprintf(tw, "Earliest entry:\t%s\n", orNA(stats.EarliestEntry))
	fmt.Fprintf(tw, "Latest entry:\t%s\n", orNA(stats.LatestEntry))
	fmt.Fprintf(tw, "Database size:\t%s\n", formatSize(stats.DBSizeBytes))
	tw.Flush()

	if len(stats.Categories) > 0 {
		fmt.Fprintln(w, "\nEntries by category:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range stats.Categories {
			fmt.Fprintf(tw, "  %s\t%d\n", orUnknown(c.Category), c.Count)
		}
		tw.Flush()
	}
}

// WindowsTable renders the fetched-windows ledger.
func WindowsTable(w io.Writer, windows []cache.WindowInfo) {
	if len(windows) == 0 {
		fmt.Fprintln(w, "No fetched windows in the cache.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW START\tWINDOW END\tFETCHED AT\tFILES\tENTRIES")
	for _, win := range windows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			win.Start, win.End, win.FetchedAt, win.FileCount, win.EntryCount)
	}
	tw.Flush()
}

// Summary renders aggregate statistics over a set of entries.
func Summary(w io.Writer, s summary.Summary) {
	if s.TotalEvents == 0 {
		fmt.Fprintln(w, "No entries to summarize.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total events:\t%d\n", s.TotalEvents)
	fmt.Fprintf(tw, "Date range:\t%s to %s\n", orNA(s.FirstTimestamp), orNA(s.LastTimestamp))
	fmt.Fprintf(tw, "Unique categories:\t%d\n", len(s.Categories))
	fmt.Fprintf(tw, "Unique actions:\t%d\n", len(s.Actions))
	fmt.Fprintf(tw, "Unique actors:\t%d\n", len(s.Actors))
	fmt.Fprintf(tw, "Success:\t%d\n", s.Success)
	fmt.Fprintf(tw, "Failure:\t%d\n", s.Failure)
	fmt.Fprintf(tw, "Success rate:\t%.1f%%\n", s.SuccessRate())
	tw.Flush()

	countSection(w, s, "Events by category:", s.Categories, len(s.Categories))
	countSection(w, s, "Top actions:", s.Actions, 20)
	countSection(w, s, "Top actors:", s.Actors, 20)

	if len(s.ClientIPs) > 0 {
		fmt.Fprintln(w, "\nTop client IPs:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range summary.Top(s.ClientIPs, 10) {
			fmt.Fprintf(tw, "  %s\t%d\n", c.Key, c.N)
		}
		tw.Flush()
	}

	if s.Failure > 0 {
		fmt.Fprintf(w, "\nFailure analysis (%d failures):\n", s.Failure)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range summary.Top(s.FailureActions, 20) {
			fmt.Fprintf(tw, "  %s\t%d\n", c.Key, c.N)
		}
		tw.Flush()
	}
}

func countSection(w io.Writer, s summary.Summary, title string, counts []summary.Count, limit int) {
	fmt.Fprintln(w, "\n"+title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range summary.Top(counts, limit) {
		pct := float64(c.N) / float64(s.TotalEvents) * 100
		fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\n", c.Key, c.N, pct)
	}
	tw.Flush()
}

// FetchSummary renders the aggregate result of a fetch run, including
// its per-window errors.
func FetchSummary(w io.Writer, p *fetcher.Progress) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Time windows:\t%d\n", p.TotalWindows)
	fmt.Fprintf(tw, "Already cached:\t%d\n", p.SkippedWindows)
	fmt.Fprintf(tw, "Newly fetched:\t%d\n", p.TotalWindows-p.SkippedWindows)
	fmt.Fprintf(tw, "Total entries:\t%d\n", p.TotalEntries)
	fmt.Fprintf(tw, "New entries:\t%d\n", p.NewEntries)
	if len(p.Errors) > 0 {
		fmt.Fprintf(tw, "Errors:\t%d\n", len(p.Errors))
	}
	tw.Flush()

	for _, e := range p.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}

// ConfigStatus renders the result of a configuration/auth check.
func ConfigStatus(w io.Writer, baseURL string, settingsOK, authOK bool, errMsg string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Environment URL:\t%s\n", orNA(baseURL))
	fmt.Fprintf(tw, "Settings loaded:\t%s\n", okMark(settingsOK))
	fmt.Fprintf(tw, "Authentication:\t%s\n", okMark(authOK))
	tw.Flush()

	if errMsg != "" {
		fmt.Fprintf(w, "\nError: %s\n", errMsg)
	}
}

func okMark(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

// shortTimestamp drops the millisecond part for the list view.
func shortTimestamp(ts string) string {
	if i := strings.Index(ts, "."); i >= 0 {
		return ts[:i] + "Z"
	}
	return ts
}

func formatSize(n int64) string {
	switch {
	case n > 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n > 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
