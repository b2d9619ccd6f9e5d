package search

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strconv"
	"testing"

	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/store"
)

func newCorpus(t *testing.T, pages map[string]string) (*store.FileStore, map[string]string) {
	t.Helper()

	s, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ids := make(map[string]string, len(pages))
	for u, text := range pages {
		id, err := s.Save(context.Background(), u, text)
		if err != nil {
			t.Fatalf("failed to save %s: %v", u, err)
		}
		ids[u] = id
	}
	return s, ids
}

// TestSearch tests matching over a stored corpus.
func TestSearch(t *testing.T) {
	t.Parallel()

	s, ids := newCorpus(t, map[string]string{
		"https://example.com/netflix": "Streaming company Netflix Inc. reported results",
		"https://example.com/other":   "Nothing to see here",
		"https://example.com/german":  "Die Straße ist lang",
	})
	index := New(s)
	ctx := context.Background()

	t.Run("case-insensitive substring", func(t *testing.T) {
		t.Parallel()

		got, err := index.Search(ctx, "netflix")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{ids["https://example.com/netflix"]}
		if !slices.Equal(got, want) {
			t.Errorf("Search(netflix) = %v, want %v", got, want)
		}
	})

	t.Run("unicode case folding", func(t *testing.T) {
		t.Parallel()

		got, err := index.Search(ctx, "STRASSE")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{ids["https://example.com/german"]}
		if !slices.Equal(got, want) {
			t.Errorf("Search(STRASSE) = %v, want %v", got, want)
		}
	})

	t.Run("matches across pages sorted", func(t *testing.T) {
		t.Parallel()

		got, err := index.Search(ctx, "e")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 results, got %v", got)
		}
		if !slices.IsSorted(got) {
			t.Errorf("results not sorted: %v", got)
		}
	})

	t.Run("no match is an empty slice", func(t *testing.T) {
		t.Parallel()

		got, err := index.Search(ctx, "kubernetes")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	for _, term := range []string{"", "   ", "\t\n"} {
		t.Run("empty term "+strconv.Quote(term), func(t *testing.T) {
			t.Parallel()

			got, err := index.Search(ctx, term)
			if !errors.Is(err, model.ErrEmptyQuery) {
				t.Errorf("expected ErrEmptyQuery, got %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

// TestSearchSourceErrors tests behavior when the store misbehaves.
func TestSearchSourceErrors(t *testing.T) {
	t.Parallel()

	t.Run("vanished pages are skipped", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{
			ids:   []string{"a", "b"},
			texts: map[string]string{"b": "match"},
		}
		got, err := New(src).Search(context.Background(), "match")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"b"}) {
			t.Errorf("unexpected results %v", got)
		}
	})

	t.Run("list error is returned", func(t *testing.T) {
		t.Parallel()

		listErr := errors.New("disk on fire")
		src := &fakeSource{listErr: listErr}
		_, err := New(src).Search(context.Background(), "x")
		if !errors.Is(err, listErr) {
			t.Errorf("expected list error, got %v", err)
		}
	})
}

type fakeSource struct {
	ids     []string
	texts   map[string]string
	listErr error
}

func (f *fakeSource) List(_ context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if f.listErr != nil {
			yield("", f.listErr)
			return
		}
		for _, id := range f.ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (f *fakeSource) Get(_ context.Context, id string) (string, error) {
	text, ok := f.texts[id]
	if !ok {
		return "", &store.StoreError{Kind: store.KindNotFound, PageID: id}
	}
	return text, nil
}
