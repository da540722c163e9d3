package fetcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glassd/unqork-audit-logs/internal/cache"
)

// stubTransport serves canned locations and file bytes per window start.
type stubTransport struct {
	locations map[string][]string
	files     map[string][]byte
	failOn    map[string]error

	locationCalls []string
}

func (s *stubTransport) FetchLocations(ctx context.Context, start, end string) ([]string, error) {
	s.locationCalls = append(s.locationCalls, start)
	if err, ok := s.failOn[start]; ok {
		return nil, err
	}
	return s.locations[start], nil
}

func (s *stubTransport) DownloadAll(ctx context.Context, urls []string, onProgress func(completed, total int)) ([][]byte, error) {
	var out [][]byte
	for i, u := range urls {
		data, ok := s.files[u]
		if !ok {
			return nil, fmt.Errorf("no such file %q", u)
		}
		out = append(out, data)
		if onProgress != nil {
			onProgress(i+1, len(urls))
		}
	}
	return out, nil
}

// recordingObserver logs every event name in order.
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) WindowStarted(start, end string, fileCount int) {
	r.events = append(r.events, fmt.Sprintf("started:%s:%d", start, fileCount))
}
func (r *recordingObserver) FileProgress(completed, total int) {
	r.events = append(r.events, fmt.Sprintf("file:%d/%d", completed, total))
}
func (r *recordingObserver) WindowCompleted(start, end string, entries, newEntries int) {
	r.events = append(r.events, fmt.Sprintf("completed:%s:%d:%d", start, entries, newEntries))
}
func (r *recordingObserver) WindowSkipped(start, end string) {
	r.events = append(r.events, "skipped:"+start)
}
func (r *recordingObserver) WindowFailed(start, end, message string) {
	r.events = append(r.events, "failed:"+start)
}

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entryLine(n int) string {
	return fmt.Sprintf(`{"timestamp":"2025-02-17T09:%02d:00.000Z","category":"user-access","action":"login-%d"}`, n, n)
}

func TestRunFetchesAllWindows(t *testing.T) {
	store := openStore(t)
	transport := &stubTransport{
		locations: map[string][]string{
			"2025-02-17T09:00:00.000Z": {"f1", "f2"},
			"2025-02-17T10:00:00.000Z": {"f3"},
		},
		files: map[string][]byte{
			"f1": []byte(entryLine(1) + "\n" + entryLine(2)),
			"f2": []byte(entryLine(3)),
			"f3": []byte(entryLine(4)),
		},
	}
	obs := &recordingObserver{}

	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 11, 0, 0, 0, time.UTC)

	progress := New(transport, store, obs).Run(context.Background(), start, end)

	if progress.TotalWindows != 2 || progress.CompletedWindows != 2 {
		t.Errorf("expected 2/2 windows, got %d/%d", progress.CompletedWindows, progress.TotalWindows)
	}
	if progress.SkippedWindows != 0 {
		t.Errorf("expected no skips, got %d", progress.SkippedWindows)
	}
	if progress.TotalFiles != 3 {
		t.Errorf("expected 3 files, got %d", progress.TotalFiles)
	}
	if progress.TotalEntries != 4 || progress.NewEntries != 4 {
		t.Errorf("expected 4 total / 4 new entries, got %d/%d", progress.TotalEntries, progress.NewEntries)
	}
	if len(progress.Errors) != 0 {
		t.Errorf("unexpected errors: %v", progress.Errors)
	}

	count, err := store.CountEntries(context.Background(), cache.Filter{})
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 stored entries, got %d", count)
	}

	wantEvents := []string{
		"started:2025-02-17T09:00:00.000Z:2",
		"file:1/2",
		"file:2/2",
		"completed:2025-02-17T09:00:00.000Z:3:3",
		"started:2025-02-17T10:00:00.000Z:1",
		"file:1/1",
		"completed:2025-02-17T10:00:00.000Z:1:1",
	}
	if strings.Join(obs.events, ",") != strings.Join(wantEvents, ",") {
		t.Errorf("unexpected event sequence:\n got %v\nwant %v", obs.events, wantEvents)
	}
}

func TestRunSkipsFetchedWindows(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	// First window is already in the ledger.
	if _, err := store.StoreWindow(ctx, "2025-02-17T09:00:00.000Z", "2025-02-17T10:00:00.000Z", nil, 0); err != nil {
		t.Fatalf("StoreWindow: %v", err)
	}

	transport := &stubTransport{
		locations: map[string][]string{},
		files:     map[string][]byte{},
	}
	obs := &recordingObserver{}

	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 11, 0, 0, 0, time.UTC)

	progress := New(transport, store, obs).Run(ctx, start, end)

	if progress.SkippedWindows != 1 {
		t.Errorf("expected 1 skipped window, got %d", progress.SkippedWindows)
	}
	if progress.CompletedWindows != 2 {
		t.Errorf("skipped windows still count as completed, got %d", progress.CompletedWindows)
	}
	if len(transport.locationCalls) != 1 {
		t.Errorf("cached window must not hit the API, got calls %v", transport.locationCalls)
	}
	if obs.events[0] != "skipped:2025-02-17T09:00:00.000Z" {
		t.Errorf("expected skip event first, got %v", obs.events)
	}
}

func TestRunRecordsEmptyWindows(t *testing.T) {
	store := openStore(t)
	transport := &stubTransport{
		locations: map[string][]string{},
		files:     map[string][]byte{},
	}

	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 10, 0, 0, 0, time.UTC)

	progress := New(transport, store, nil).Run(context.Background(), start, end)
	if progress.CompletedWindows != 1 || len(progress.Errors) != 0 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	fetched, err := store.IsWindowFetched(context.Background(),
		"2025-02-17T09:00:00.000Z", "2025-02-17T10:00:00.000Z")
	if err != nil {
		t.Fatalf("IsWindowFetched: %v", err)
	}
	if !fetched {
		t.Error("empty window must still be recorded as fetched")
	}
}

func TestRunIsolatesWindowFailures(t *testing.T) {
	store := openStore(t)
	transport := &stubTransport{
		locations: map[string][]string{
			"2025-02-17T09:00:00.000Z": {"f1"},
			"2025-02-17T11:00:00.000Z": {"f2"},
		},
		files: map[string][]byte{
			"f1": []byte(entryLine(1)),
			"f2": []byte(entryLine(2)),
		},
		failOn: map[string]error{
			"2025-02-17T10:00:00.000Z": errors.New("upstream unavailable"),
		},
	}
	obs := &recordingObserver{}

	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 12, 0, 0, 0, time.UTC)

	progress := New(transport, store, obs).Run(context.Background(), start, end)

	if progress.TotalWindows != 3 {
		t.Errorf("expected 3 windows, got %d", progress.TotalWindows)
	}
	if progress.CompletedWindows != 2 {
		t.Errorf("expected 2 completed windows, got %d", progress.CompletedWindows)
	}
	if len(progress.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", progress.Errors)
	}
	if !strings.Contains(progress.Errors[0], "2025-02-17T10:00:00.000Z") {
		t.Errorf("error must name the failed window, got %q", progress.Errors[0])
	}
	if !strings.Contains(progress.Errors[0], "upstream unavailable") {
		t.Errorf("error must carry the cause, got %q", progress.Errors[0])
	}

	// Windows 1 and 3 both stored their entries.
	if progress.NewEntries != 2 {
		t.Errorf("expected 2 new entries from the surviving windows, got %d", progress.NewEntries)
	}

	// The failed window stays out of the ledger so a later run retries it.
	fetched, err := store.IsWindowFetched(context.Background(),
		"2025-02-17T10:00:00.000Z", "2025-02-17T11:00:00.000Z")
	if err != nil {
		t.Fatalf("IsWindowFetched: %v", err)
	}
	if fetched {
		t.Error("failed window must not be marked fetched")
	}

	var failures int
	for _, e := range obs.events {
		if strings.HasPrefix(e, "failed:") {
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure event, got %d (%v)", failures, obs.events)
	}
}

func TestRunDownloadFailureSkipsStorage(t *testing.T) {
	store := openStore(t)
	transport := &stubTransport{
		locations: map[string][]string{
			"2025-02-17T09:00:00.000Z": {"missing"},
		},
		files: map[string][]byte{},
	}

	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 10, 0, 0, 0, time.UTC)

	progress := New(transport, store, nil).Run(context.Background(), start, end)
	if len(progress.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", progress.Errors)
	}
	if progress.CompletedWindows != 0 {
		t.Errorf("failed window must not count as completed, got %d", progress.CompletedWindows)
	}

	count, err := store.CountEntries(context.Background(), cache.Filter{})
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if count != 0 {
		t.Errorf("no entries may be stored for a failed window, got %d", count)
	}
}
