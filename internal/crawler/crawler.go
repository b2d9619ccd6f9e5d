package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/textcrawl/internal/extractor"
	"github.com/nao1215/textcrawl/internal/fetcher"
	"github.com/nao1215/textcrawl/internal/metrics"
	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/store"
)

// errNoSeeds is the cause reported when Start gets an empty seed list.
var errNoSeeds = errors.New("no seed URLs given")

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Response, error)
}

// Extractor turns a fetched body into text and links.
type Extractor interface {
	Extract(in extractor.Input) (*extractor.Result, error)
}

// Store persists page text and returns its page id.
type Store interface {
	Save(ctx context.Context, sourceURL, text string) (string, error)
}

// PageRecorder is told about every stored page, e.g. to keep the
// id to source URL mapping in a database. Errors are logged, not fatal.
type PageRecorder interface {
	RecordPage(ctx context.Context, page model.Page, runID string) error
}

// Crawler runs crawls with a fixed configuration. One Crawler can start
// any number of runs, sequentially or concurrently; each run gets its own
// frontier, so runs never share visited state.
type Crawler struct {
	fetcher   Fetcher
	extractor Extractor
	store     Store
	recorder  PageRecorder
	metrics   *metrics.Metrics
	logger    *slog.Logger

	concurrency int
	maxDepth    int
	maxPages    int
	delay       time.Duration
	policy      linkPolicy
}

// New creates a Crawler that fetches with f and saves into s.
func New(f Fetcher, s Store, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     f,
		extractor:   extractor.New(),
		store:       s,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
		maxDepth:    DefaultMaxDepth,
		maxPages:    DefaultMaxPages,
		delay:       DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start validates the seeds, loads them into a fresh frontier and starts
// the workers. It returns immediately; use Run.Wait for the Summary.
//
// Seeds that are not absolute http(s) URLs are reported as failures with
// stage "seed" in the Summary. If no seed is valid, Start returns a
// *model.ValidationError of kind InvalidSeedURL and no run is started.
func (c *Crawler) Start(ctx context.Context, seeds []string) (*Run, error) {
	r := newRun(c, seeds)
	r.setState(model.RunStateSeeding)

	valid := make([]string, 0, len(seeds))
	var firstErr error
	for _, seed := range seeds {
		normalized, err := model.NormalizeURL(seed)
		if err != nil {
			verr := model.NewValidationError(model.ValidationInvalidSeedURL, seed, err)
			if firstErr == nil {
				firstErr = verr
			}
			r.summary.Failures = append(r.summary.Failures, model.Failure{
				URL:     seed,
				Stage:   model.StageSeed,
				Kind:    string(model.ValidationInvalidSeedURL),
				Message: verr.Error(),
			})
			c.logger.Warn("invalid seed URL", "url", seed, "error", err)
			continue
		}
		valid = append(valid, normalized)
		r.policy.seedHosts[model.Hostname(normalized)] = true
	}

	if len(valid) == 0 {
		if firstErr == nil {
			firstErr = model.NewValidationError(model.ValidationInvalidSeedURL, "", errNoSeeds)
		}
		return nil, firstErr
	}

	r.frontier.OfferSeeds(valid)
	r.start(ctx)
	return r, nil
}

// Crawl runs a crawl to completion and returns its Summary.
// The Summary is partial when ctx is cancelled.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) (*model.Summary, error) {
	r, err := c.Start(ctx, seeds)
	if err != nil {
		return nil, err
	}
	return r.Wait(), nil
}

// Crawl crawls seeds with concurrency workers, writing page text to
// outputDir, using the default fetcher. Further options are applied after
// concurrency.
func Crawl(ctx context.Context, seeds []string, outputDir string, concurrency int, opts ...Option) (*model.Summary, error) {
	f, err := fetcher.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	s, err := store.New(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	all := append([]Option{WithConcurrency(concurrency)}, opts...)
	return New(f, s, all...).Crawl(ctx, seeds)
}

// newRunID returns a unique run identifier.
func newRunID() string {
	return uuid.NewString()
}
