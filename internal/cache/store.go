package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"
	_ "modernc.org/sqlite"

	"github.com/glassd/unqork-audit-logs/internal/logparse"
)

// ErrNotFound is returned when an entry lookup matches nothing.
var ErrNotFound = errors.New("cache: entry not found")

// AmbiguousIDError is returned when an ID prefix matches more than one
// entry. Matches carries the candidates for the caller to display.
type AmbiguousIDError struct {
	Prefix  string
	Matches []Entry
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("cache: ambiguous entry ID prefix %q (%d matches)", e.Prefix, len(e.Matches))
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fetched_windows (
    window_start TEXT NOT NULL,
    window_end TEXT NOT NULL,
    fetched_at TEXT NOT NULL,
    file_count INTEGER DEFAULT 0,
    entry_count INTEGER DEFAULT 0,
    PRIMARY KEY (window_start, window_end)
);

CREATE TABLE IF NOT EXISTS log_entries (
    id TEXT PRIMARY KEY,
    raw_json TEXT NOT NULL,
    date TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    event_type TEXT DEFAULT '',
    category TEXT DEFAULT '',
    action TEXT DEFAULT '',
    source TEXT DEFAULT '',
    outcome_type TEXT DEFAULT '',
    actor_type TEXT DEFAULT '',
    actor_id TEXT DEFAULT '',
    environment TEXT DEFAULT '',
    client_ip TEXT DEFAULT '',
    host TEXT DEFAULT '',
    session_id TEXT DEFAULT '',
    object_type TEXT DEFAULT '',
    window_start TEXT DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_log_date ON log_entries(date);
CREATE INDEX IF NOT EXISTS idx_log_timestamp ON log_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_log_category ON log_entries(category);
CREATE INDEX IF NOT EXISTS idx_log_action ON log_entries(action);
CREATE INDEX IF NOT EXISTS idx_log_outcome ON log_entries(outcome_type);
CREATE INDEX IF NOT EXISTS idx_log_actor ON log_entries(actor_id);
CREATE INDEX IF NOT EXISTS idx_log_source ON log_entries(source);
CREATE INDEX IF NOT EXISTS idx_log_environment ON log_entries(environment);
CREATE INDEX IF NOT EXISTS idx_log_client_ip ON log_entries(client_ip);
`

// Entry is one cached audit log record: the original payload plus the
// indexed columns extracted from it.
type Entry struct {
	ID          string
	Raw         string
	Date        string
	Timestamp   string
	EventType   string
	Category    string
	Action      string
	Source      string
	OutcomeType string
	ActorType   string
	ActorID     string
	Environment string
	ClientIP    string
	Host        string
	SessionID   string
	ObjectType  string
	WindowStart string
}

// WindowInfo describes one fetched window in the ledger.
type WindowInfo struct {
	Start      string
	End        string
	FetchedAt  string
	FileCount  int
	EntryCount int
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalEntries  int64
	TotalWindows  int64
	EarliestEntry string
	LatestEntry   string
	Categories    []CategoryCount
	DBSizeBytes   int64
}

// CategoryCount is a per-category entry count, ordered most frequent first.
type CategoryCount struct {
	Category string
	Count    int64
}

// Store is the SQLite-backed cache: log entries deduplicated by content
// hash plus the fetched-windows ledger that makes re-fetching incremental.
//
// One writer process at a time is assumed; concurrent reads are fine.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cache: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY between the writer and same-process readers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EntryID derives the deterministic content hash used as an entry's
// primary key: identical payloads always map to the same ID, which is
// what makes storing a window idempotent.
func EntryID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// IsWindowFetched reports whether the exact (start, end) window is
// already recorded in the ledger.
func (s *Store) IsWindowFetched(ctx context.Context, start, end string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM fetched_windows WHERE window_start = ? AND window_end = ?",
		start, end,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: window lookup: %w", err)
	}
	return true, nil
}

// FetchedWindows returns the full ledger ordered by window start.
func (s *Store) FetchedWindows(ctx context.Context) ([]WindowInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT window_start, window_end, fetched_at, file_count, entry_count FROM fetched_windows ORDER BY window_start")
	if err != nil {
		return nil, fmt.Errorf("cache: list windows: %w", err)
	}
	defer rows.Close()

	var windows []WindowInfo
	for rows.Next() {
		var w WindowInfo
		if err := rows.Scan(&w.Start, &w.End, &w.FetchedAt, &w.FileCount, &w.EntryCount); err != nil {
			return nil, fmt.Errorf("cache: scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// StoreWindow stores a fetched window's entries and records the window
// in the ledger. The whole operation is one transaction: either all
// inserts and the ledger row commit together or none do.
//
// Entries whose payload fails to parse are skipped with a diagnostic.
// Duplicate payloads (same content hash) are ignored; only genuinely new
// rows count toward the returned total. The ledger row is written even
// for an empty window, so an hour with no logs is not re-fetched forever.
//
// A payload already stored by an earlier window keeps that window's
// attribution; it is not re-linked to this one.
func (s *Store) StoreWindow(ctx context.Context, start, end string, entries []logparse.Entry, fileCount int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cache: begin transaction: %w", err)
	}
	defer tx.Rollback()

	var p fastjson.Parser
	inserted := 0

	for _, entry := range entries {
		id := EntryID(entry.Raw)

		v, err := p.Parse(entry.Raw)
		if err != nil {
			log.Warn().Str("id", id).Msg("skipping entry with invalid JSON")
			continue
		}
		fields := extractFields(v)

		if fields.actorID == "" && fields.outcomeType == "" {
			log.Debug().
				Str("id", id).
				Str("raw", truncate(entry.Raw, 500)).
				Msg("entry has empty actor_id and outcome_type")
		}

		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO log_entries (
				id, raw_json, date, timestamp, event_type, category,
				action, source, outcome_type, actor_type, actor_id,
				environment, client_ip, host, session_id, object_type,
				window_start
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, entry.Raw,
			fields.date, fields.timestamp, fields.eventType, fields.category,
			fields.action, fields.source, fields.outcomeType, fields.actorType,
			fields.actorID, fields.environment, fields.clientIP, fields.host,
			fields.sessionID, fields.objectType, start,
		)
		if err != nil {
			log.Warn().Err(err).Str("id", id).Msg("failed to insert entry")
			continue
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	fetchedAt := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO fetched_windows
		(window_start, window_end, fetched_at, file_count, entry_count)
		VALUES (?, ?, ?, ?, ?)`,
		start, end, fetchedAt, fileCount, len(entries),
	); err != nil {
		return 0, fmt.Errorf("cache: record window: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cache: commit window: %w", err)
	}

	log.Debug().
		Int("entries", len(entries)).
		Int("new", inserted).
		Str("window_start", start).
		Str("window_end", end).
		Msg("stored window")
	return inserted, nil
}

const entryColumns = `id, raw_json, date, timestamp, event_type, category,
	action, source, outcome_type, actor_type, actor_id, environment,
	client_ip, host, session_id, object_type, window_start`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.Raw, &e.Date, &e.Timestamp, &e.EventType, &e.Category,
		&e.Action, &e.Source, &e.OutcomeType, &e.ActorType, &e.ActorID,
		&e.Environment, &e.ClientIP, &e.Host, &e.SessionID, &e.ObjectType,
		&e.WindowStart,
	)
	return e, err
}

// QueryEntries returns entries matching all supplied filters, newest
// timestamp first, bounded by the filter's limit and offset.
func (s *Store) QueryEntries(ctx context.Context, f Filter) ([]Entry, error) {
	where, params := f.whereClause()

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	params = append(params, limit, f.Offset)

	query := fmt.Sprintf(
		"SELECT %s FROM log_entries %s ORDER BY timestamp DESC LIMIT ? OFFSET ?",
		entryColumns, where)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("cache: query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("cache: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountEntries counts entries matching the filter's countable subset
// (time bounds, category, action, actor, outcome).
func (s *Store) CountEntries(ctx context.Context, f Filter) (int64, error) {
	where, params := f.countWhereClause()

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM log_entries "+where, params...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("cache: count entries: %w", err)
	}
	return count, nil
}

// GetEntryByID returns the entry with the exact ID, or ErrNotFound.
func (s *Store) GetEntryByID(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM log_entries WHERE id = ?", entryColumns), id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("cache: get entry: %w", err)
	}
	return e, nil
}

// GetEntryByPrefix resolves an entry by exact ID or unique ID prefix.
// More than one prefix match yields an AmbiguousIDError carrying the
// candidates.
func (s *Store) GetEntryByPrefix(ctx context.Context, prefix string) (Entry, error) {
	e, err := s.GetEntryByID(ctx, prefix)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM log_entries WHERE id LIKE ? LIMIT 10", entryColumns),
		prefix+"%")
	if err != nil {
		return Entry{}, fmt.Errorf("cache: prefix lookup: %w", err)
	}
	defer rows.Close()

	var matches []Entry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return Entry{}, fmt.Errorf("cache: scan entry: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}

	switch len(matches) {
	case 0:
		return Entry{}, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return Entry{}, &AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
}

// GetStats returns aggregate cache statistics.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM log_entries").Scan(&stats.TotalEntries); err != nil {
		return Stats{}, fmt.Errorf("cache: count entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fetched_windows").Scan(&stats.TotalWindows); err != nil {
		return Stats{}, fmt.Errorf("cache: count windows: %w", err)
	}

	var earliest, latest sql.NullString
	if err := s.db.QueryRowContext(ctx,
		"SELECT MIN(timestamp), MAX(timestamp) FROM log_entries",
	).Scan(&earliest, &latest); err != nil {
		return Stats{}, fmt.Errorf("cache: entry time range: %w", err)
	}
	stats.EarliestEntry = earliest.String
	stats.LatestEntry = latest.String

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, COUNT(*) AS cnt FROM log_entries GROUP BY category ORDER BY cnt DESC")
	if err != nil {
		return Stats{}, fmt.Errorf("cache: category counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return Stats{}, fmt.Errorf("cache: scan category: %w", err)
		}
		stats.Categories = append(stats.Categories, cc)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if fi, err := os.Stat(s.path); err == nil {
		stats.DBSizeBytes = fi.Size()
	}

	return stats, nil
}

// Clear deletes all entries and the entire fetched-windows ledger.
// Irreversible; only the explicit cache-clear command calls this.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM log_entries"); err != nil {
		return fmt.Errorf("cache: clear entries: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM fetched_windows"); err != nil {
		return fmt.Errorf("cache: clear windows: %w", err)
	}
	log.Info().Msg("cache cleared")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
