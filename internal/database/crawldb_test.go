package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/textcrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testSummary(runID string, started time.Time) *model.Summary {
	return &model.Summary{
		RunID:          runID,
		Seeds:          []string{"https://example.com/", "https://example.org/"},
		State:          model.RunStateDone,
		Concurrency:    4,
		PagesFetched:   10,
		PagesFailed:    2,
		PagesStored:    8,
		URLsDiscovered: 12,
		Failures: []model.Failure{
			{URL: "https://example.com/missing", Stage: model.StageStatus, Kind: "404", Message: "status 404"},
			{URL: "https://example.com/slow", Stage: model.StageFetch, Kind: "Timeout", Message: "timed out"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		ctx := context.Background()
		if err := db.SaveRun(ctx, testSummary("run-1", time.Now())); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		if _, err := db.GetRun(ctx, "run-1"); err != nil {
			t.Errorf("run lost after reopen: %v", err)
		}
	})
}

func TestSaveRun(t *testing.T) {
	t.Parallel()

	t.Run("round trips counters and seeds", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s := testSummary("run-1", started)

		if err := db.SaveRun(ctx, s); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		got, err := db.GetRun(ctx, "run-1")
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if got.PagesFetched != 10 || got.PagesFailed != 2 || got.PagesStored != 8 || got.URLsDiscovered != 12 {
			t.Errorf("counters = %+v", got)
		}
		if got.Concurrency != 4 {
			t.Errorf("Concurrency = %d, want 4", got.Concurrency)
		}
		if got.State != model.RunStateDone {
			t.Errorf("State = %q", got.State)
		}
		if len(got.Seeds) != 2 || got.Seeds[0] != "https://example.com/" {
			t.Errorf("Seeds = %v", got.Seeds)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
		}
		if !got.FinishedAt.Equal(started.Add(3 * time.Second)) {
			t.Errorf("FinishedAt = %v", got.FinishedAt)
		}
		if got.Cancelled {
			t.Error("Cancelled should be false")
		}
		if d := got.Summary().Duration(); d != 3*time.Second {
			t.Errorf("Duration = %v, want 3s", d)
		}
	})

	t.Run("stores failures as dead URLs", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		if err := db.SaveRun(ctx, testSummary("run-1", time.Now())); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		dead, err := db.DeadURLs(ctx, "run-1")
		if err != nil {
			t.Fatalf("DeadURLs failed: %v", err)
		}
		if len(dead) != 2 {
			t.Fatalf("expected 2 dead URLs, got %d", len(dead))
		}
		if dead[0].Stage != model.StageStatus || dead[0].Kind != "404" {
			t.Errorf("dead[0] = %+v", dead[0])
		}
		if dead[1].Stage != model.StageFetch || dead[1].Kind != "Timeout" {
			t.Errorf("dead[1] = %+v", dead[1])
		}
	})

	t.Run("saving twice replaces the run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		s := testSummary("run-1", time.Now())
		if err := db.SaveRun(ctx, s); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		s.Cancelled = true
		s.PagesStored = 9
		s.Failures = s.Failures[:1]
		if err := db.SaveRun(ctx, s); err != nil {
			t.Fatalf("second SaveRun failed: %v", err)
		}

		got, err := db.GetRun(ctx, "run-1")
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if !got.Cancelled || got.PagesStored != 9 {
			t.Errorf("run not updated: %+v", got)
		}
		dead, err := db.DeadURLs(ctx, "run-1")
		if err != nil {
			t.Fatalf("DeadURLs failed: %v", err)
		}
		if len(dead) != 1 {
			t.Errorf("expected 1 dead URL after replace, got %d", len(dead))
		}
	})
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "middle", "new"} {
		if err := db.SaveRun(ctx, testSummary(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", id, err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		runs, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].ID != "new" || runs[2].ID != "old" {
			t.Errorf("order = %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		runs, err := db.ListRuns(ctx, 2)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	_, err := db.GetRun(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPage(t *testing.T) {
	t.Parallel()

	t.Run("records and looks up pages", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		url := "https://example.com/a"
		page := model.Page{ID: model.PageID(url), URL: url, Title: "A", Text: "hello", SavedAt: time.Now()}

		if err := db.RecordPage(ctx, page, "run-1"); err != nil {
			t.Fatalf("RecordPage failed: %v", err)
		}

		got, err := db.PageURL(ctx, page.ID)
		if err != nil {
			t.Fatalf("PageURL failed: %v", err)
		}
		if got != url {
			t.Errorf("PageURL = %q, want %q", got, url)
		}

		rec, err := db.GetPage(ctx, page.ID)
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if rec.Title != "A" || rec.Bytes != 5 || rec.RunID != "run-1" {
			t.Errorf("GetPage = %+v", rec)
		}
	})

	t.Run("recording again updates the run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		url := "https://example.com/a"
		page := model.Page{ID: model.PageID(url), URL: url}

		if err := db.RecordPage(ctx, page, "run-1"); err != nil {
			t.Fatalf("RecordPage failed: %v", err)
		}
		if err := db.RecordPage(ctx, page, "run-2"); err != nil {
			t.Fatalf("second RecordPage failed: %v", err)
		}

		rec, err := db.GetPage(ctx, page.ID)
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if rec.RunID != "run-2" {
			t.Errorf("RunID = %q, want run-2", rec.RunID)
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		_, err := db.PageURL(context.Background(), "0123456789abcdef0123456789abcdef")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				url := "https://example.com/" + string(rune('a'+i))
				errs <- db.RecordPage(ctx, model.Page{ID: model.PageID(url), URL: url}, "run-1")
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Errorf("RecordPage failed: %v", err)
			}
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "stored format", input: "2026-01-02T03:04:05.000000000Z"},
		{name: "RFC3339", input: "2026-01-02T03:04:05Z"},
		{name: "SQLite datetime", input: "2026-01-02 03:04:05"},
		{name: "empty", input: "", zero: true},
		{name: "garbage", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v, zero=%v", tt.input, got, tt.zero)
			}
		})
	}

	now := time.Now()
	if got := parseTimestamp(formatTimestamp(now)); !got.Equal(now) {
		t.Errorf("round trip = %v, want %v", got, now)
	}
}
