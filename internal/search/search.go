// Package search answers substring queries over the stored corpus.
//
// There is no separate index: every query scans the pages the store lists
// and matches case-insensitively with Unicode case folding. A search that
// runs alongside a crawl sees whatever pages have been written so far.
package search

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/store"
)

// Source is the read side of a page store.
type Source interface {
	List(ctx context.Context) iter.Seq2[string, error]
	Get(ctx context.Context, pageID string) (string, error)
}

// Index searches the pages of a Source. It holds no state of its own and
// is safe for concurrent use.
type Index struct {
	source Source
	logger *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Index over source.
func New(source Source, opts ...Option) *Index {
	i := &Index{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Search returns the sorted ids of pages whose text contains term,
// ignoring case.
//
// An empty or whitespace-only term matches nothing: Search returns an
// empty slice and a *model.ValidationError of kind EmptyQuery without
// scanning.
func (i *Index) Search(ctx context.Context, term string) ([]string, error) {
	if strings.TrimSpace(term) == "" {
		return []string{}, model.NewValidationError(model.ValidationEmptyQuery, term, nil)
	}

	// cases.Caser is stateful, so each search gets its own.
	folder := cases.Fold()
	needle := folder.String(term)

	results := make([]string, 0)
	for id, err := range i.source.List(ctx) {
		if err != nil {
			return []string{}, fmt.Errorf("list pages: %w", err)
		}

		text, err := i.source.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Removed between List and Get.
				continue
			}
			return []string{}, fmt.Errorf("read page %s: %w", id, err)
		}

		if strings.Contains(folder.String(text), needle) {
			results = append(results, id)
		}
	}

	slices.Sort(results)
	i.logger.Debug("search finished", "term_length", len(term), "results", len(results))
	return results, nil
}
