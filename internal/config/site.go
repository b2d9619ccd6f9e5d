package config

import (
	"strings"
	"time"
)

// SiteConfig holds per-host configuration.
// This allows customizing requests and link following per site.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax; a trailing "*" matches any suffix.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path patterns to follow during crawling.
	// If specified, only matching paths on this host are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// CrawlSettings are the crawl options that may be set in the config file.
// Zero values leave the current setting unchanged; pointer fields are
// used where zero is a meaningful value.
type CrawlSettings struct {
	OutputDir      string         `yaml:"outputDir,omitempty"`
	Concurrency    int            `yaml:"concurrency,omitempty"`
	Timeout        time.Duration  `yaml:"timeout,omitempty"`
	Retries        *int           `yaml:"retries,omitempty"`
	RetryBackoff   time.Duration  `yaml:"retryBackoff,omitempty"`
	MaxDepth       *int           `yaml:"maxDepth,omitempty"`
	MaxPages       *int           `yaml:"maxPages,omitempty"`
	SameHost       *bool          `yaml:"sameHost,omitempty"`
	Delay          *time.Duration `yaml:"delay,omitempty"`
	MaxBodySize    int64          `yaml:"maxBodySize,omitempty"`
	MaxRedirects   *int           `yaml:"maxRedirects,omitempty"`
	UserAgent      string         `yaml:"userAgent,omitempty"`
	Proxy          string         `yaml:"proxy,omitempty"`
	IgnorePatterns []string       `yaml:"ignorePatterns,omitempty"`
	FollowPatterns []string       `yaml:"followPatterns,omitempty"`
}

// ServerSettings are the search API options that may be set in the
// config file.
type ServerSettings struct {
	Port int `yaml:"port,omitempty"`
}

// StorageSettings are the history database options.
type StorageSettings struct {
	DBDir    string `yaml:"dbDir,omitempty"`
	SaveToDB *bool  `yaml:"saveToDB,omitempty"`
}

// File represents the structure of the .textcrawl configuration file.
type File struct {
	// Seeds are the URLs crawled when none are given on the command line.
	Seeds []string `yaml:"seeds,omitempty"`

	Crawl   CrawlSettings   `yaml:"crawl,omitempty"`
	Server  ServerSettings  `yaml:"server,omitempty"`
	Storage StorageSettings `yaml:"storage,omitempty"`

	// Sites maps host names to their site-specific configurations.
	// Keys are host names without scheme or port (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host.
// It merges the site-specific configuration with defaults. Host lookup is
// case-insensitive.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[host]
	if !ok {
		siteConfig, ok = cf.Sites[strings.ToLower(host)]
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(siteConfig.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range siteConfig.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

// Hosts returns the host names that have site-specific configuration.
func (cf *File) Hosts() []string {
	hosts := make([]string, 0, len(cf.Sites))
	for h := range cf.Sites {
		hosts = append(hosts, strings.ToLower(h))
	}
	return hosts
}

// Apply copies the settings present in the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if len(cf.Seeds) > 0 {
		cfg.Seeds = append([]string(nil), cf.Seeds...)
	}

	c := cf.Crawl
	if c.OutputDir != "" {
		cfg.OutputDir = c.OutputDir
	}
	if c.Concurrency != 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.Timeout != 0 {
		cfg.Timeout = c.Timeout
	}
	if c.Retries != nil {
		cfg.Retries = *c.Retries
	}
	if c.RetryBackoff != 0 {
		cfg.RetryBackoff = c.RetryBackoff
	}
	if c.MaxDepth != nil {
		cfg.MaxDepth = *c.MaxDepth
	}
	if c.MaxPages != nil {
		cfg.MaxPages = *c.MaxPages
	}
	if c.SameHost != nil {
		cfg.SameHost = *c.SameHost
	}
	if c.Delay != nil {
		cfg.CrawlDelay = *c.Delay
	}
	if c.MaxBodySize != 0 {
		cfg.MaxBodySize = c.MaxBodySize
	}
	if c.MaxRedirects != nil {
		cfg.MaxRedirects = *c.MaxRedirects
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	if c.Proxy != "" {
		cfg.ProxyAddress = c.Proxy
	}
	if len(c.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = c.IgnorePatterns
	}
	if len(c.FollowPatterns) > 0 {
		cfg.FollowPatterns = c.FollowPatterns
	}

	if cf.Server.Port != 0 {
		cfg.Port = cf.Server.Port
	}

	if cf.Storage.DBDir != "" {
		cfg.DBDir = cf.Storage.DBDir
	}
	if cf.Storage.SaveToDB != nil {
		cfg.SaveToDB = *cf.Storage.SaveToDB
	}

	cfg.SiteConfigs = cf
}
