package crawler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/textcrawl/internal/extractor"
	"github.com/nao1215/textcrawl/internal/fetcher"
	"github.com/nao1215/textcrawl/internal/frontier"
	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/store"
)

// Run is one crawl in progress. It owns the frontier and the counters of
// the run; nothing is shared with other runs.
type Run struct {
	c        *Crawler
	frontier *frontier.Frontier
	policy   linkPolicy
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	state   model.RunState
	summary model.Summary
	// reserved counts pages in progress, so MaxPages is never exceeded
	// by concurrent workers. slots is signalled when one is released.
	reserved int
	slots    *sync.Cond
}

func newRun(c *Crawler, seeds []string) *Run {
	id := newRunID()
	policy := c.policy
	policy.seedHosts = make(map[string]bool)

	r := &Run{
		c:        c,
		frontier: frontier.New(),
		policy:   policy,
		logger:   c.logger.With("run_id", id),
		done:     make(chan struct{}),
		state:    model.RunStateIdle,
		summary: model.Summary{
			RunID:       id,
			Seeds:       append([]string(nil), seeds...),
			Concurrency: c.concurrency,
			StartedAt:   time.Now(),
		},
	}
	r.slots = sync.NewCond(&r.mu)
	return r
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.summary.RunID
}

// State returns the current lifecycle state.
func (r *Run) State() model.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cancel stops the run. Workers stop dequeuing and Wait returns a partial
// Summary.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its Summary.
func (r *Run) Wait() *model.Summary {
	<-r.done
	return r.snapshot()
}

// Progress returns a copy of the Summary so far.
func (r *Run) Progress() *model.Summary {
	s := r.snapshot()
	s.URLsDiscovered = r.frontier.Stats().Seen
	return s
}

func (r *Run) snapshot() *model.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.State = r.state
	s.Seeds = append([]string(nil), r.summary.Seeds...)
	s.Failures = append([]model.Failure(nil), r.summary.Failures...)
	return &s
}

func (r *Run) setState(s model.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// beginDraining moves Running to Draining; later calls are no-ops.
func (r *Run) beginDraining(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == model.RunStateRunning {
		r.state = model.RunStateDraining
		r.logger.Debug("draining", "reason", reason)
	}
}

// start launches the workers.
//
// Design decision: We run a fixed number of long-lived workers that pull
// from the frontier, rather than one goroutine per URL, so the number of
// concurrent requests never exceeds the configured width.
func (r *Run) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.setState(model.RunStateRunning)

	r.logger.Info("crawl started",
		"seeds", len(r.summary.Seeds),
		"concurrency", r.c.concurrency,
		"max_depth", r.c.maxDepth,
		"max_pages", r.c.maxPages)

	go func() {
		defer close(r.done)

		g := new(errgroup.Group)
		g.SetLimit(r.c.concurrency)
		for range r.c.concurrency {
			g.Go(func() error {
				r.work(runCtx)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // workers never return errors

		cancelled := runCtx.Err() != nil
		cancel()
		r.finish(cancelled)
	}()
}

func (r *Run) finish(cancelled bool) {
	stats := r.frontier.Stats()

	r.mu.Lock()
	r.summary.URLsDiscovered = stats.Seen
	r.summary.Cancelled = cancelled
	r.summary.FinishedAt = time.Now()
	r.state = model.RunStateDone
	s := r.summary
	r.mu.Unlock()

	r.c.metrics.SetFrontier(0, 0)
	r.logger.Info("crawl finished",
		"fetched", s.PagesFetched,
		"stored", s.PagesStored,
		"failed", s.PagesFailed,
		"discovered", s.URLsDiscovered,
		"cancelled", s.Cancelled,
		"duration", s.FinishedAt.Sub(s.StartedAt))
}

// work is the worker loop: Next, process, Complete, until the frontier
// is done or closed or the run is cancelled.
func (r *Run) work(ctx context.Context) {
	for {
		item, err := r.frontier.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, frontier.ErrDone):
				r.beginDraining("frontier exhausted")
			case errors.Is(err, frontier.ErrClosed):
				r.beginDraining("page limit reached")
			default:
				r.beginDraining("cancelled")
			}
			return
		}

		r.process(ctx, item)
		r.frontier.Complete(item.URL)

		stats := r.frontier.Stats()
		r.c.metrics.SetFrontier(stats.Queued, stats.InFlight)

		if r.c.delay > 0 {
			timer := time.NewTimer(r.c.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
}

// process runs one URL through fetch, extract, store and link discovery.
// Every failure is recorded in the Summary; none is returned.
//
// A page slot is reserved before fetching, so once MaxPages pages are
// stored no further URL is fetched, and every fetched URL ends up either
// stored or failed, unless its redirect target was already crawled.
func (r *Run) process(ctx context.Context, item frontier.Item) {
	logger := r.logger.With("url", item.URL, "depth", item.Depth)

	if !r.reserve(ctx) {
		logger.Debug("page limit reached, not fetching")
		return
	}
	stored := false
	defer func() { r.release(stored) }()

	start := time.Now()
	resp, err := r.c.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		if ctx.Err() != nil {
			// Aborted by cancellation, not a failure of the URL.
			return
		}
		r.fail(logger, item.URL, model.StageFetch, errorKind(err), err)
		return
	}
	r.fetched(time.Since(start))

	// A redirect target is a URL of its own: claim it so it is fetched
	// and stored once, whichever way a worker reaches it first.
	pageURL := item.URL
	if final, err := model.NormalizeURL(resp.FinalURL); err == nil && final != item.URL {
		if !r.frontier.Claim(final) {
			logger.Info("redirect target already crawled, not storing", "target", final)
			return
		}
		logger.Debug("followed redirect", "target", final)
		pageURL = final
	}

	if !resp.OK() {
		r.fail(logger, item.URL, model.StageStatus, strconv.Itoa(resp.StatusCode), errors.New("HTTP "+strconv.Itoa(resp.StatusCode)))
		return
	}

	result, err := r.c.extractor.Extract(extractor.Input{
		Body:        resp.Body,
		ContentType: resp.ContentType,
		BaseURL:     resp.FinalURL,
		Truncated:   resp.Truncated,
	})
	if err != nil {
		r.fail(logger, item.URL, model.StageExtract, errorKind(err), err)
		return
	}

	id, err := r.c.store.Save(ctx, pageURL, result.Text)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		r.fail(logger, item.URL, model.StageStore, errorKind(err), err)
		return
	}
	stored = true
	logger.Debug("page stored", "page_id", id, "source", pageURL, "links", len(result.Links))

	if r.c.recorder != nil {
		page := model.Page{ID: id, URL: pageURL, Title: result.Title, Text: result.Text, SavedAt: time.Now()}
		if err := r.c.recorder.RecordPage(ctx, page, r.ID()); err != nil {
			logger.Warn("failed to record page", "page_id", id, "error", err)
		}
	}

	r.offerLinks(item, result.Links)
}

// offerLinks enqueues the links that pass the depth limit and link policy.
func (r *Run) offerLinks(item frontier.Item, links []string) {
	if r.c.maxDepth >= 0 && item.Depth >= r.c.maxDepth {
		return
	}

	allowed := make([]string, 0, len(links))
	for _, link := range links {
		if r.policy.allow(link) {
			allowed = append(allowed, link)
		}
	}
	if n := r.frontier.Offer(allowed, item.Depth+1); n > 0 {
		r.logger.Debug("links queued", "url", item.URL, "new", n, "found", len(links))
	}
}

// reserve claims a page slot under MaxPages. While every remaining slot
// is held by a page in progress it waits, since one of those may still
// fail. It returns false once the limit is reached or ctx ends.
func (r *Run) reserve(ctx context.Context) bool {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.slots.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if ctx.Err() != nil {
			return false
		}
		if r.c.maxPages <= 0 || r.summary.PagesStored+r.reserved < r.c.maxPages {
			r.reserved++
			return true
		}
		if r.summary.PagesStored >= r.c.maxPages {
			return false
		}
		r.slots.Wait()
	}
}

// release returns a slot; stored reports whether the page was saved.
// Reaching MaxPages closes the frontier, which starts draining.
func (r *Run) release(stored bool) {
	r.mu.Lock()
	r.reserved--
	if stored {
		r.summary.PagesStored++
	}
	limitReached := r.c.maxPages > 0 && r.summary.PagesStored >= r.c.maxPages
	r.slots.Broadcast()
	r.mu.Unlock()

	if stored {
		r.c.metrics.ObserveStored()
	}
	if limitReached {
		r.frontier.Close()
	}
}

func (r *Run) fetched(d time.Duration) {
	r.mu.Lock()
	r.summary.PagesFetched++
	r.mu.Unlock()
	r.c.metrics.ObserveFetch(d)
}

func (r *Run) fail(logger *slog.Logger, url string, stage model.Stage, kind string, err error) {
	r.mu.Lock()
	r.summary.PagesFailed++
	r.summary.Failures = append(r.summary.Failures, model.Failure{
		URL:     url,
		Stage:   stage,
		Kind:    kind,
		Message: err.Error(),
	})
	r.mu.Unlock()

	r.c.metrics.ObserveFailure(string(stage), kind)
	logger.Warn("page failed", "stage", string(stage), "kind", kind, "error", err)
}

// errorKind names the kind of a typed pipeline error.
func errorKind(err error) string {
	var (
		fetchErr *fetcher.FetchError
		parseErr *extractor.ParseError
		storeErr *store.StoreError
	)
	switch {
	case errors.As(err, &fetchErr):
		return string(fetchErr.Kind)
	case errors.As(err, &parseErr):
		return string(parseErr.Kind)
	case errors.As(err, &storeErr):
		return string(storeErr.Kind)
	default:
		return "Unknown"
	}
}
