package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nao1215/textcrawl/internal/model"
)

const (
	// pageExt is the extension of page blobs.
	pageExt = ".txt"

	// listBatchSize is how many directory entries List reads at a time.
	listBatchSize = 256

	dirPerm  = 0o750
	filePerm = 0o640
)

// FileStore stores page text as files under one directory.
//
// Save is idempotent per source URL for the lifetime of the FileStore:
// repeated calls return the same id without rewriting. Concurrent saves
// of the same id are collapsed into one write; different ids are written
// in parallel.
type FileStore struct {
	dir    string
	group  singleflight.Group
	logger *slog.Logger

	mu    sync.Mutex
	saved map[string]bool
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New opens a FileStore rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, &StoreError{Kind: KindWriteFailed, Err: fmt.Errorf("create %s: %w", dir, err)}
	}

	s := &FileStore{
		dir:    dir,
		logger: slog.Default(),
		saved:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save stores text for sourceURL and returns its page id.
func (s *FileStore) Save(ctx context.Context, sourceURL, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := sourceURL
	if normalized, err := model.NormalizeURL(sourceURL); err == nil {
		key = normalized
	}
	id := model.PageID(key)

	if s.isSaved(id) {
		return id, nil
	}

	_, err, _ := s.group.Do(id, func() (any, error) {
		// A caller that was waiting behind an earlier flight arrives here
		// after that flight finished.
		if s.isSaved(id) {
			return nil, nil
		}
		if err := s.write(id, text); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.saved[id] = true
		s.mu.Unlock()

		s.logger.Debug("page saved", "page_id", id, "url", key, "bytes", len(text))
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) isSaved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[id]
}

// write puts text in place atomically via a temporary file and rename.
func (s *FileStore) write(id, text string) (err error) {
	fail := func(err error) error {
		return &StoreError{Kind: KindWriteFailed, PageID: id, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, "."+id+"-*.tmp")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
		}
	}()

	if _, err := io.WriteString(tmp, text); err != nil {
		_ = tmp.Close() //nolint:errcheck // the write error is reported
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // the sync error is reported
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		return fail(err)
	}
	return nil
}

// Get returns the text stored under pageID.
func (s *FileStore) Get(ctx context.Context, pageID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !model.IsValidPageID(pageID) {
		return "", &StoreError{Kind: KindNotFound, PageID: pageID, Err: errors.New("malformed page id")}
	}

	data, err := os.ReadFile(s.path(pageID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &StoreError{Kind: KindNotFound, PageID: pageID}
		}
		return "", fmt.Errorf("read page %s: %w", pageID, err)
	}
	return string(data), nil
}

// List lazily yields the id of every stored page, reading the directory
// in batches. Iteration stops at the first error, which is yielded with
// an empty id.
func (s *FileStore) List(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		d, err := os.Open(s.dir)
		if err != nil {
			yield("", fmt.Errorf("open store directory: %w", err))
			return
		}
		defer d.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			entries, err := d.ReadDir(listBatchSize)
			for _, e := range entries {
				id, ok := pageIDFromName(e.Name())
				if !ok || !e.Type().IsRegular() {
					continue
				}
				if !yield(id, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("read store directory: %w", err))
				return
			}
		}
	}
}

// Len counts the stored pages.
func (s *FileStore) Len(ctx context.Context) (int, error) {
	n := 0
	for _, err := range s.List(ctx) {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+pageExt)
}

func pageIDFromName(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, pageExt)
	if !ok || !model.IsValidPageID(id) {
		return "", false
	}
	return id, true
}
