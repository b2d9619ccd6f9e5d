package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/textcrawl/internal/metrics"
	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/store"
)

//go:embed static/index.html
var indexHTML []byte

// Timeouts for the HTTP server.
const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Searcher finds page ids containing a term.
type Searcher interface {
	Search(ctx context.Context, term string) ([]string, error)
}

// PageReader returns the stored text of a page.
type PageReader interface {
	Get(ctx context.Context, pageID string) (string, error)
}

// PageLocator maps a page id back to its source URL.
type PageLocator interface {
	PageURL(ctx context.Context, pageID string) (string, error)
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Results []string `json:"results"`
	Error   string   `json:"error,omitempty"`
}

// Server serves search over the page store.
type Server struct {
	mux      *http.ServeMux
	searcher Searcher
	pages    PageReader
	locator  PageLocator
	progress func() *model.Summary
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithPageLocator adds the source URL to /pages responses as the
// X-Source-URL header.
func WithPageLocator(l PageLocator) Option {
	return func(s *Server) {
		s.locator = l
	}
}

// WithProgress exposes a running crawl's progress at /status.
func WithProgress(progress func() *model.Summary) Option {
	return func(s *Server) {
		s.progress = progress
	}
}

// WithMetrics records search outcomes and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server and registers its routes.
func New(searcher Searcher, pages PageReader, opts ...Option) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		searcher: searcher,
		pages:    pages,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("GET /pages/{id}", s.handlePage)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx ends, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	// serveDone releases the shutdown goroutine when Serve fails on its
	// own, before ctx ends.
	serveDone := make(chan struct{})
	defer close(serveDone)

	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-serveDone:
			shutdownErr <- nil
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("search server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("searchTerm")
	if term == "" {
		term = q.Get("q")
	}

	results, err := s.searcher.Search(r.Context(), term)
	switch {
	case errors.Is(err, model.ErrEmptyQuery):
		s.metrics.ObserveSearch(metrics.SearchInvalid)
		writeJSON(w, http.StatusBadRequest, SearchResponse{Results: []string{}, Error: err.Error()})
		return
	case err != nil:
		s.metrics.ObserveSearch(metrics.SearchError)
		s.logger.Error("search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}

	if results == nil {
		results = []string{}
	}
	s.metrics.ObserveSearch(metrics.SearchOK)
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := trimID(r.PathValue("id"))
	text, err := s.pages.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to read page", "page_id", id, "error", err)
		http.Error(w, "failed to read page", http.StatusInternalServerError)
		return
	}

	if s.locator != nil {
		if src, err := s.locator.PageURL(r.Context(), id); err == nil {
			w.Header().Set("X-Source-URL", src)
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(text)))
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.progress == nil {
		writeJSON(w, http.StatusOK, map[string]string{"state": string(model.RunStateIdle)})
		return
	}
	writeJSON(w, http.StatusOK, s.progress())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// Addr formats a listen address for port on all interfaces.
func Addr(port int) string {
	return ":" + strconv.Itoa(port)
}

// trimID accepts ids given with the store's file extension.
func trimID(id string) string {
	return strings.TrimSuffix(id, ".txt")
}
