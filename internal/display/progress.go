package display

import (
	"fmt"
	"io"
)

// FetchProgress prints fetch events as they happen. It implements the
// fetcher's observer contract and writes one line per event, suitable
// for stderr alongside machine-readable stdout output.
type FetchProgress struct {
	W io.Writer

	windowsDone  int
	windowsTotal int
}

// NewFetchProgress returns a progress printer for totalWindows windows.
func NewFetchProgress(w io.Writer, totalWindows int) *FetchProgress {
	return &FetchProgress{W: w, windowsTotal: totalWindows}
}

func (p *FetchProgress) WindowStarted(start, end string, fileCount int) {
	fmt.Fprintf(p.W, "[%d/%d] %s: %d file(s)\n",
		p.windowsDone+1, p.windowsTotal, start, fileCount)
}

func (p *FetchProgress) FileProgress(completed, total int) {
	fmt.Fprintf(p.W, "  downloaded %d/%d\n", completed, total)
}

func (p *FetchProgress) WindowCompleted(start, end string, entries, newEntries int) {
	p.windowsDone++
	fmt.Fprintf(p.W, "[%d/%d] %s: %d entries (%d new)\n",
		p.windowsDone, p.windowsTotal, start, entries, newEntries)
}

func (p *FetchProgress) WindowSkipped(start, end string) {
	p.windowsDone++
	fmt.Fprintf(p.W, "[%d/%d] %s: already cached\n",
		p.windowsDone, p.windowsTotal, start)
}

func (p *FetchProgress) WindowFailed(start, end, message string) {
	p.windowsDone++
	fmt.Fprintf(p.W, "[%d/%d] %s: failed: %s\n",
		p.windowsDone, p.windowsTotal, start, message)
}
