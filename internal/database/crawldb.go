package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/textcrawl/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "textcrawl.db"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CrawlDB provides SQLite-based storage for crawl history.
// It records each run's Summary, the source URL and title of every stored
// page, and the URLs that failed.
//
// Design decision: Page text stays in the file store. The database only
// holds metadata, so search never depends on it and a missing or deleted
// database loses history but no pages.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers (e.g. the search
	// server) don't block the crawl's writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite takes the open mode in the DSN: rw refuses to
	// create a missing file, rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection serializes the workers'
	// RecordPage calls without SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run, written when the run finishes
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		state TEXT NOT NULL,
		seeds TEXT NOT NULL,
		concurrency INTEGER NOT NULL,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		pages_stored INTEGER NOT NULL DEFAULT 0,
		urls_discovered INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Maps page ids in the file store to their source URL
	CREATE TABLE IF NOT EXISTS pages (
		page_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		run_id TEXT NOT NULL,
		title TEXT,
		bytes INTEGER NOT NULL DEFAULT 0,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

	-- URLs that failed in a run, at any stage
	CREATE TABLE IF NOT EXISTS dead_urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		stage TEXT NOT NULL,
		kind TEXT NOT NULL,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_dead_run ON dead_urls(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	State          model.RunState
	Seeds          []string
	Concurrency    int
	PagesFetched   int
	PagesFailed    int
	PagesStored    int
	URLsDiscovered int
	Cancelled      bool
}

// Summary converts the record back to a Summary without failures.
func (r *RunRecord) Summary() *model.Summary {
	return &model.Summary{
		RunID:          r.ID,
		Seeds:          r.Seeds,
		State:          r.State,
		Concurrency:    r.Concurrency,
		PagesFetched:   r.PagesFetched,
		PagesFailed:    r.PagesFailed,
		PagesStored:    r.PagesStored,
		URLsDiscovered: r.URLsDiscovered,
		Cancelled:      r.Cancelled,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}

// PageRecord is the stored metadata of one page.
type PageRecord struct {
	PageID  string
	URL     string
	RunID   string
	Title   string
	Bytes   int
	SavedAt time.Time
}

// DeadURL is a URL that failed in a run.
type DeadURL struct {
	RunID   string
	URL     string
	Stage   model.Stage
	Kind    string
	Message string
}

// SaveRun stores a run Summary and its failures in one transaction.
// Saving the same run again replaces the previous row and failures.
func (cdb *CrawlDB) SaveRun(ctx context.Context, s *model.Summary) (err error) {
	seedsJSON, err := json.Marshal(s.Seeds)
	if err != nil {
		return fmt.Errorf("failed to serialize seeds: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is reported
		}
	}()

	query := `
	INSERT INTO crawl_runs (id, started_at, finished_at, state, seeds, concurrency,
		pages_fetched, pages_failed, pages_stored, urls_discovered, cancelled)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		state = excluded.state,
		pages_fetched = excluded.pages_fetched,
		pages_failed = excluded.pages_failed,
		pages_stored = excluded.pages_stored,
		urls_discovered = excluded.urls_discovered,
		cancelled = excluded.cancelled
	`
	if _, err = tx.ExecContext(ctx, query,
		s.RunID,
		formatTimestamp(s.StartedAt),
		formatTimestamp(s.FinishedAt),
		string(s.State),
		string(seedsJSON),
		s.Concurrency,
		s.PagesFetched,
		s.PagesFailed,
		s.PagesStored,
		s.URLsDiscovered,
		s.Cancelled,
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM dead_urls WHERE run_id = ?`, s.RunID); err != nil {
		return fmt.Errorf("failed to clear dead URLs: %w", err)
	}
	for _, f := range s.Failures {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO dead_urls (run_id, url, stage, kind, message) VALUES (?, ?, ?, ?, ?)`,
			s.RunID, f.URL, string(f.Stage), f.Kind, f.Message,
		); err != nil {
			return fmt.Errorf("failed to save dead URL: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RecordPage inserts or updates the metadata of a stored page.
// It satisfies crawler.PageRecorder.
func (cdb *CrawlDB) RecordPage(ctx context.Context, page model.Page, runID string) error {
	savedAt := page.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	query := `
	INSERT INTO pages (page_id, url, run_id, title, bytes, saved_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(page_id) DO UPDATE SET
		run_id = excluded.run_id,
		title = excluded.title,
		bytes = excluded.bytes,
		saved_at = excluded.saved_at
	`
	_, err := cdb.db.ExecContext(ctx, query,
		page.ID, page.URL, runID, page.Title, len(page.Text), formatTimestamp(savedAt))
	if err != nil {
		return fmt.Errorf("failed to record page: %w", err)
	}
	return nil
}

// GetPage returns the metadata of a page, or ErrNotFound.
func (cdb *CrawlDB) GetPage(ctx context.Context, pageID string) (*PageRecord, error) {
	query := `
	SELECT page_id, url, run_id, title, bytes, saved_at
	FROM pages WHERE page_id = ?
	`

	var (
		p       PageRecord
		title   sql.NullString
		savedAt string
	)
	err := cdb.db.QueryRowContext(ctx, query, pageID).Scan(&p.PageID, &p.URL, &p.RunID, &title, &p.Bytes, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", pageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	p.Title = title.String
	p.SavedAt = parseTimestamp(savedAt)
	return &p, nil
}

// PageURL returns the source URL of a page, or ErrNotFound.
func (cdb *CrawlDB) PageURL(ctx context.Context, pageID string) (string, error) {
	p, err := cdb.GetPage(ctx, pageID)
	if err != nil {
		return "", err
	}
	return p.URL, nil
}

// ListRuns returns the most recent runs first. A limit of 0 or less
// returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, state, seeds, concurrency,
		pages_fetched, pages_failed, pages_stored, urls_discovered, cancelled
	FROM crawl_runs
	ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns one run, or ErrNotFound.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, state, seeds, concurrency,
		pages_fetched, pages_failed, pages_stored, urls_discovered, cancelled
	FROM crawl_runs WHERE id = ?
	`
	r, err := scanRun(cdb.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return r, err
}

// DeadURLs returns the failed URLs of a run.
func (cdb *CrawlDB) DeadURLs(ctx context.Context, runID string) ([]DeadURL, error) {
	query := `
	SELECT run_id, url, stage, kind, message
	FROM dead_urls WHERE run_id = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead URLs: %w", err)
	}
	defer rows.Close()

	var dead []DeadURL
	for rows.Next() {
		var (
			d       DeadURL
			stage   string
			message sql.NullString
		)
		if err := rows.Scan(&d.RunID, &d.URL, &stage, &d.Kind, &message); err != nil {
			return nil, fmt.Errorf("failed to scan dead URL: %w", err)
		}
		d.Stage = model.Stage(stage)
		d.Message = message.String
		dead = append(dead, d)
	}
	return dead, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		r          RunRecord
		startedAt  string
		finishedAt sql.NullString
		state      string
		seedsJSON  string
	)
	err := row.Scan(&r.ID, &startedAt, &finishedAt, &state, &seedsJSON, &r.Concurrency,
		&r.PagesFetched, &r.PagesFailed, &r.PagesStored, &r.URLsDiscovered, &r.Cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	r.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		r.FinishedAt = parseTimestamp(finishedAt.String)
	}
	r.State = model.RunState(state)
	if err := json.Unmarshal([]byte(seedsJSON), &r.Seeds); err != nil {
		// Keep the row usable even if the seed list is damaged.
		r.Seeds = nil
	}
	return &r, nil
}

// formatTimestamp stores times as UTC RFC 3339 so that ORDER BY on the
// text column sorts chronologically.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z", // formatTimestamp
	time.RFC3339Nano,                 // RFC3339 with nanoseconds
	time.RFC3339,                     // Full RFC3339 format
	"2006-01-02 15:04:05",            // SQLite default datetime format
	"2006-01-02 15:04:05.999",        // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all formats, it returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
