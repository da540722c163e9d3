package fetcher

import (
	"testing"
	"time"
)

func TestWindowsExactHours(t *testing.T) {
	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 12, 0, 0, 0, time.UTC)

	windows := Windows(start, end)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}

	want := []Window{
		{"2025-02-17T09:00:00.000Z", "2025-02-17T10:00:00.000Z"},
		{"2025-02-17T10:00:00.000Z", "2025-02-17T11:00:00.000Z"},
		{"2025-02-17T11:00:00.000Z", "2025-02-17T12:00:00.000Z"},
	}
	for i, w := range windows {
		if w != want[i] {
			t.Errorf("window %d: got %+v, want %+v", i, w, want[i])
		}
	}
}

func TestWindowsPartialFinalWindow(t *testing.T) {
	start := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 10, 30, 0, 0, time.UTC)

	windows := Windows(start, end)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if windows[1].Start != "2025-02-17T10:00:00.000Z" || windows[1].End != "2025-02-17T10:30:00.000Z" {
		t.Errorf("unexpected final window %+v", windows[1])
	}
}

func TestWindowsContiguous(t *testing.T) {
	start := time.Date(2025, 2, 16, 23, 15, 0, 0, time.UTC)
	end := time.Date(2025, 2, 17, 23, 15, 0, 0, time.UTC)

	windows := Windows(start, end)
	if len(windows) != 24 {
		t.Fatalf("expected 24 windows for a day, got %d", len(windows))
	}
	if windows[0].Start != FormatAPITime(start) {
		t.Errorf("first window must start at the range start, got %s", windows[0].Start)
	}
	if windows[len(windows)-1].End != FormatAPITime(end) {
		t.Errorf("last window must end at the range end, got %s", windows[len(windows)-1].End)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].Start != windows[i-1].End {
			t.Errorf("gap between window %d and %d: %s vs %s",
				i-1, i, windows[i-1].End, windows[i].Start)
		}
	}
}

func TestWindowsEmptyRange(t *testing.T) {
	at := time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)
	if got := Windows(at, at); len(got) != 0 {
		t.Errorf("start == end must yield no windows, got %d", len(got))
	}
	if got := Windows(at.Add(time.Hour), at); len(got) != 0 {
		t.Errorf("start > end must yield no windows, got %d", len(got))
	}
}

func TestFormatAPITime(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2025, 2, 17, 4, 30, 15, 123456789, est)
	if got := FormatAPITime(at); got != "2025-02-17T09:30:15.000Z" {
		t.Errorf("got %q", got)
	}
}

func TestParseTimeInput(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-02-17T09:00:00.000Z", time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)},
		{"2025-02-17T09:00:00Z", time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)},
		{"2025-02-17T09:00:00+02:00", time.Date(2025, 2, 17, 7, 0, 0, 0, time.UTC)},
		{"2025-02-17T09:00:00", time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)},
		{"2025-02-17T09:00", time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)},
		{"2025-02-17 09:00:30", time.Date(2025, 2, 17, 9, 0, 30, 0, time.UTC)},
		{"2025-02-17 09:00", time.Date(2025, 2, 17, 9, 0, 0, 0, time.UTC)},
		{"2025-02-17", time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)},
		{"  2025-02-17  ", time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeInput(tt.in)
			if err != nil {
				t.Fatalf("ParseTimeInput(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimeInputRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not-a-time", "17/02/2025", "2025-02-17X"} {
		if _, err := ParseTimeInput(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseRelative(t *testing.T) {
	tests := []struct {
		in    string
		delta time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30m", 30 * time.Minute},
		{"1H", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, err := ParseRelative(tt.in)
			if err != nil {
				t.Fatalf("ParseRelative(%q): %v", tt.in, err)
			}
			if got := end.Sub(start); got != tt.delta {
				t.Errorf("got delta %v, want %v", got, tt.delta)
			}
			if time.Since(end) > time.Minute {
				t.Errorf("end must be close to now, got %v", end)
			}
		})
	}
}

func TestParseRelativeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "h", "24", "24x", "-1h", "abch"} {
		if _, _, err := ParseRelative(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
