package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultOutputDir is where extracted page text is stored, relative to
	// the working directory.
	DefaultOutputDir = "pages"

	// DefaultPort is the port the search API listens on. It matches the
	// port the service has always used, so existing clients keep working.
	DefaultPort = 3000

	// DefaultConcurrency is the number of crawl workers.
	DefaultConcurrency = 8

	// DefaultTimeout bounds one fetch attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the number of extra attempts after a transient
	// fetch failure.
	DefaultRetries = 2

	// DefaultRetryBackoff is the base delay of the exponential backoff.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultMaxDepth follows links one level below the seeds. Seed
	// lists are usually front pages, and one level already reaches
	// thousands of URLs.
	DefaultMaxDepth = 1

	// DefaultMaxPages stops a run after this many stored pages.
	DefaultMaxPages = 500

	// DefaultCrawlDelay is the delay between a worker's fetches.
	DefaultCrawlDelay = 200 * time.Millisecond

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxRedirects is the number of redirects followed per fetch.
	DefaultMaxRedirects = 10

	// DefaultUserAgent identifies textcrawl in HTTP requests so site
	// operators can find and filter its traffic.
	DefaultUserAgent = "textcrawl/1.0 (+https://github.com/nao1215/textcrawl)"

	// AppName is the application name used for XDG directory paths.
	AppName = "textcrawl"
)

// Config holds all configuration options for textcrawl.
// It is populated from defaults, the config file, the environment and
// CLI flags, in that order, and passed down by value or pointer rather
// than held in global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is manageable and every command reads a
// different subset.
type Config struct {
	// Seeds are the URLs a crawl starts from.
	Seeds []string

	// OutputDir is the directory holding one text file per stored page.
	OutputDir string

	// Port is the TCP port of the search API.
	Port int

	// Concurrency is the number of crawl workers.
	Concurrency int

	// Timeout bounds a single fetch attempt, including reading the body.
	Timeout time.Duration

	// Retries is the number of extra attempts after a transient failure.
	Retries int

	// RetryBackoff is the base delay between attempts.
	RetryBackoff time.Duration

	// MaxDepth is the maximum link depth from a seed. Seeds are depth 0.
	// A negative value means unlimited.
	MaxDepth int

	// MaxPages stops the crawl after this many stored pages. 0 means
	// unlimited.
	MaxPages int

	// SameHost restricts crawling to the hosts of the seeds.
	SameHost bool

	// IgnorePatterns are glob patterns for URL paths that are never
	// followed, on any host.
	IgnorePatterns []string

	// FollowPatterns, when non-empty, are the only URL paths followed.
	FollowPatterns []string

	// CrawlDelay is the delay between a worker's fetches.
	CrawlDelay time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed per fetch.
	MaxRedirects int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// LogFile sends logs to a rotating file instead of stderr.
	LogFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .textcrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// JSONReport prints the run summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run summary.
	// When set, the summary is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the crawl history database.
	// Defaults to the XDG data directory (~/.local/share/textcrawl on Linux).
	DBDir string

	// SaveToDB records runs and page URLs in the crawl history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Port:         DefaultPort,
		Concurrency:  DefaultConcurrency,
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
		RetryBackoff: DefaultRetryBackoff,
		MaxDepth:     DefaultMaxDepth,
		MaxPages:     DefaultMaxPages,
		CrawlDelay:   DefaultCrawlDelay,
		MaxBodySize:  DefaultMaxBodySize,
		MaxRedirects: DefaultMaxRedirects,
		UserAgent:    DefaultUserAgent,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
	}
}

// XDGDataDir returns the XDG data directory for textcrawl.
// On Linux: ~/.local/share/textcrawl
// On macOS: ~/Library/Application Support/textcrawl
// On Windows: %LOCALAPPDATA%\textcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for textcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
//
// Seeds are not checked here because only the crawl command needs them;
// see ValidateSeeds.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Retries < 0 || c.RetryBackoff <= 0 {
		return ErrInvalidRetries
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	return nil
}

// ValidateSeeds reports ErrNoSeeds when there is nothing to crawl.
func (c *Config) ValidateSeeds() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	return nil
}
