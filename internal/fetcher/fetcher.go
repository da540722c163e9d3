package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glassd/unqork-audit-logs/internal/cache"
	"github.com/glassd/unqork-audit-logs/internal/logparse"
)

// Transport resolves and downloads the log files for a window. The
// api.Client is the production implementation.
type Transport interface {
	FetchLocations(ctx context.Context, start, end string) ([]string, error)
	DownloadAll(ctx context.Context, urls []string, onProgress func(completed, total int)) ([][]byte, error)
}

// Observer receives advisory fetch-progress events. Implementations
// must not assume any call affects control flow; the fetcher behaves
// identically with a nil observer.
type Observer interface {
	WindowStarted(start, end string, fileCount int)
	FileProgress(completed, total int)
	WindowCompleted(start, end string, entries, newEntries int)
	WindowSkipped(start, end string)
	WindowFailed(start, end, message string)
}

// Progress aggregates the outcome of one fetch run. Errors holds one
// message per failed window, in window order; a run with failed
// windows still completes and reports whatever the other windows
// produced.
type Progress struct {
	TotalWindows     int
	CompletedWindows int
	SkippedWindows   int
	TotalFiles       int
	DownloadedFiles  int
	TotalEntries     int
	NewEntries       int
	Errors           []string
}

// Fetcher walks a date range window by window: skipping windows the
// ledger already has, resolving and downloading the rest, and storing
// parsed entries. Windows are strictly sequential; only the file
// downloads inside one window run concurrently.
type Fetcher struct {
	transport Transport
	store     *cache.Store
	observer  Observer
}

// New returns a Fetcher. observer may be nil.
func New(transport Transport, store *cache.Store, observer Observer) *Fetcher {
	return &Fetcher{transport: transport, store: store, observer: observer}
}

// Run fetches all windows covering [start, end) and returns the
// aggregate progress. A single window's failure is recorded in
// Progress.Errors and never aborts the rest of the range.
func (f *Fetcher) Run(ctx context.Context, start, end time.Time) *Progress {
	windows := Windows(start, end)
	progress := &Progress{TotalWindows: len(windows)}

	log.Info().
		Int("windows", len(windows)).
		Str("start", FormatAPITime(start)).
		Str("end", FormatAPITime(end)).
		Msg("starting fetch")

	for _, w := range windows {
		f.fetchWindow(ctx, w, progress)
	}

	log.Info().
		Int("completed", progress.CompletedWindows).
		Int("skipped", progress.SkippedWindows).
		Int("new_entries", progress.NewEntries).
		Int("errors", len(progress.Errors)).
		Msg("fetch finished")
	return progress
}

func (f *Fetcher) fetchWindow(ctx context.Context, w Window, progress *Progress) {
	fetched, err := f.store.IsWindowFetched(ctx, w.Start, w.End)
	if err != nil {
		f.fail(progress, w, fmt.Sprintf("cache lookup for %s failed: %v", w.Start, err))
		return
	}
	if fetched {
		progress.SkippedWindows++
		progress.CompletedWindows++
		if f.observer != nil {
			f.observer.WindowSkipped(w.Start, w.End)
		}
		return
	}

	locations, err := f.transport.FetchLocations(ctx, w.Start, w.End)
	if err != nil {
		f.fail(progress, w, fmt.Sprintf("failed to fetch locations for %s: %v", w.Start, err))
		return
	}

	progress.TotalFiles += len(locations)
	if f.observer != nil {
		f.observer.WindowStarted(w.Start, w.End, len(locations))
	}

	if len(locations) == 0 {
		// Still record the window, so a genuinely empty hour is not
		// re-checked on every future run.
		if _, err := f.store.StoreWindow(ctx, w.Start, w.End, nil, 0); err != nil {
			f.fail(progress, w, fmt.Sprintf("failed to record empty window %s: %v", w.Start, err))
			return
		}
		progress.CompletedWindows++
		if f.observer != nil {
			f.observer.WindowCompleted(w.Start, w.End, 0, 0)
		}
		return
	}

	onProgress := func(completed, total int) {
		// Rebases the running counter on each callback. Safe only
		// because windows never overlap; a second in-flight window
		// would corrupt the count.
		progress.DownloadedFiles = progress.DownloadedFiles - total + completed
		if f.observer != nil {
			f.observer.FileProgress(completed, total)
		}
	}

	files, err := f.transport.DownloadAll(ctx, locations, onProgress)
	if err != nil {
		f.fail(progress, w, fmt.Sprintf("failed downloading files for %s: %v", w.Start, err))
		return
	}
	progress.DownloadedFiles += len(locations)

	entries := logparse.ParseFiles(files)
	progress.TotalEntries += len(entries)

	newCount, err := f.store.StoreWindow(ctx, w.Start, w.End, entries, len(locations))
	if err != nil {
		f.fail(progress, w, fmt.Sprintf("failed to store window %s: %v", w.Start, err))
		return
	}
	progress.NewEntries += newCount
	progress.CompletedWindows++

	if f.observer != nil {
		f.observer.WindowCompleted(w.Start, w.End, len(entries), newCount)
	}
}

func (f *Fetcher) fail(progress *Progress, w Window, message string) {
	log.Error().Str("window_start", w.Start).Str("window_end", w.End).Msg(message)
	progress.Errors = append(progress.Errors, message)
	if f.observer != nil {
		f.observer.WindowFailed(w.Start, w.End, message)
	}
}
