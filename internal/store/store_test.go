package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nao1215/textcrawl/internal/model"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

// TestSave tests saving and idempotency.
func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("double save returns same id and one blob", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		ctx := context.Background()

		before, err := s.Len(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		id1, err := s.Save(ctx, "https://example.com/", "Netflix Inc.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		id2, err := s.Save(ctx, "https://example.com/", "Netflix Inc.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id1 != id2 {
			t.Errorf("expected same id, got %q and %q", id1, id2)
		}

		after, err := s.Len(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after-before != 1 {
			t.Errorf("expected list to grow by 1, grew by %d", after-before)
		}
	})

	t.Run("id is derived from the normalized URL", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		id, err := s.Save(context.Background(), "HTTPS://Example.com:443#top", "text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := model.PageID("https://example.com/"); id != want {
			t.Errorf("expected id %q, got %q", want, id)
		}
	})

	t.Run("writes text to a file named by id", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		id, err := s.Save(context.Background(), "https://example.com/a", "hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(s.Dir(), id+".txt"))
		if err != nil {
			t.Fatalf("failed to read blob: %v", err)
		}
		if string(data) != "hello world" {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("concurrent saves of one URL write once", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		ids := make([]string, 32)
		for i := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id, err := s.Save(ctx, "https://example.com/same", "text")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				ids[i] = id
			}()
		}
		wg.Wait()

		for _, id := range ids {
			if id != ids[0] {
				t.Fatalf("ids differ: %v", ids)
			}
		}
		entries, err := os.ReadDir(s.Dir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected exactly one file, got %d", len(entries))
		}
	})

	t.Run("creates missing output directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "pages")
		s, err := New(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.Save(context.Background(), "https://example.com/", "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Save(ctx, "https://example.com/", "x"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestSaveWriteFailure tests that write failures propagate as StoreError.
func TestSaveWriteFailure(t *testing.T) {
	t.Parallel()

	t.Run("output path is a file", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		_, err := New(filepath.Join(blocker, "pages"))
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("expected ErrWriteFailed, got %v", err)
		}
	})

	t.Run("directory removed after open", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "pages")
		s, err := New(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Fatalf("failed to remove dir: %v", err)
		}
		if err := os.WriteFile(dir, []byte("x"), 0o600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}

		_, err = s.Save(context.Background(), "https://example.com/", "text")
		var se *StoreError
		if !errors.As(err, &se) || se.Kind != KindWriteFailed {
			t.Fatalf("expected StoreError WriteFailed, got %v", err)
		}

		// A failed save is not remembered as saved.
		if err := os.Remove(dir); err != nil {
			t.Fatalf("failed to remove file: %v", err)
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to recreate dir: %v", err)
		}
		if _, err := s.Save(context.Background(), "https://example.com/", "text"); err != nil {
			t.Errorf("expected retry to succeed, got %v", err)
		}
	})
}

// TestGet tests retrieval.
func TestGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "https://example.com/", "stored text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("existing page", func(t *testing.T) {
		t.Parallel()

		text, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "stored text" {
			t.Errorf("unexpected text %q", text)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		_, err := s.Get(ctx, model.PageID("https://example.com/missing"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("path traversal is not found", func(t *testing.T) {
		t.Parallel()

		_, err := s.Get(ctx, "../../etc/passwd")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

// TestList tests directory listing.
func TestList(t *testing.T) {
	t.Parallel()

	t.Run("lists only page blobs", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		ctx := context.Background()

		want := make(map[string]bool)
		for _, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
			id, err := s.Save(ctx, u, u)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want[id] = true
		}
		for _, name := range []string{"notes.md", "short.txt", ".abc-123.tmp"} {
			if err := os.WriteFile(filepath.Join(s.Dir(), name), []byte("x"), 0o600); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
		}
		if err := os.Mkdir(filepath.Join(s.Dir(), model.PageID("dir")+".txt"), 0o750); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}

		got := make(map[string]bool)
		for id, err := range s.List(ctx) {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got[id] = true
		}
		if len(got) != len(want) {
			t.Errorf("expected %d ids, got %d: %v", len(want), len(got), got)
		}
		for id := range want {
			if !got[id] {
				t.Errorf("missing id %s", id)
			}
		}
	})

	t.Run("stops when the consumer breaks", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		ctx := context.Background()
		for _, u := range []string{"https://example.com/1", "https://example.com/2"} {
			if _, err := s.Save(ctx, u, u); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		n := 0
		for range s.List(ctx) {
			n++
			break
		}
		if n != 1 {
			t.Errorf("expected 1 iteration, got %d", n)
		}
	})

	t.Run("cancelled context yields the error", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		for _, err := range s.List(ctx) {
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		}
	})
}
