package crawler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/textcrawl/internal/metrics"
)

// Defaults for a Crawler.
const (
	DefaultConcurrency = 8
	DefaultMaxDepth    = 1
	DefaultMaxPages    = 500
	DefaultDelay       = 200 * time.Millisecond
)

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the number of workers. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxDepth sets how many links away from a seed the crawl goes.
// 0 = only the seeds, 1 = seeds plus the pages they link to, and so on.
// A negative depth means no limit.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithMaxPages stops the run after n pages are stored. 0 means no limit.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// WithSameHost restricts discovered links to the hosts of the seeds.
func WithSameHost(sameHost bool) Option {
	return func(c *Crawler) {
		c.policy.sameHost = sameHost
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.policy.global.ignore = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only links matching at least one pattern are crawled.
func WithFollowPatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.policy.global.follow = patterns
	}
}

// WithHostPatterns sets ignore and follow patterns for one host, replacing
// the global patterns for links to that host.
func WithHostPatterns(host string, ignore, follow []string) Option {
	return func(c *Crawler) {
		if c.policy.perHost == nil {
			c.policy.perHost = make(map[string]patterns)
		}
		c.policy.perHost[strings.ToLower(host)] = patterns{ignore: ignore, follow: follow}
	}
}

// WithDelay sets the pause each worker takes between two fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithExtractor replaces the HTML extractor.
func WithExtractor(e Extractor) Option {
	return func(c *Crawler) {
		if e != nil {
			c.extractor = e
		}
	}
}

// WithRecorder sets a PageRecorder that is told about every stored page.
func WithRecorder(r PageRecorder) Option {
	return func(c *Crawler) {
		c.recorder = r
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}
