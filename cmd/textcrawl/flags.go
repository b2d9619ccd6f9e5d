package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/textcrawl/internal/config"
)

// addCrawlFlags registers the flags shared by crawl and serve --crawl.
func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory for stored page text")
	f.IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of pages fetched in parallel")
	f.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for one fetch attempt")
	f.Int("retries", config.DefaultRetries,
		"Extra attempts after a timeout or connection error")
	f.Int("depth", config.DefaultMaxDepth,
		"Maximum link depth below the seeds (-1 for unlimited)")
	f.IntP("max-pages", "p", config.DefaultMaxPages,
		"Stop after this many stored pages (0 for unlimited)")
	f.Bool("same-host", false,
		"Only follow links to the seeds' hosts")
	f.Duration("delay", config.DefaultCrawlDelay,
		"Pause between two fetches of one worker")
	f.StringSlice("ignore", nil,
		"URL path patterns to skip (repeatable)")
	f.StringSlice("follow", nil,
		"Only follow URL paths matching these patterns (repeatable)")
	f.String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	f.String("proxy", "",
		"SOCKS5 proxy address for all requests (host:port)")
	f.Bool("no-db", false,
		"Do not record the run in the crawl history database")
}

// addReportFlags registers summary output flags.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	f.StringP("report", "o", "",
		"Write the summary to this file (creates directories if needed)")
}

// applyFlags copies explicitly set flags onto cfg. Flags left at their
// default do not override the config file or the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	strs := []struct {
		name string
		dst  *string
	}{
		{"output-dir", &cfg.OutputDir},
		{"user-agent", &cfg.UserAgent},
		{"proxy", &cfg.ProxyAddress},
		{"report", &cfg.ReportFile},
		{"log-file", &cfg.LogFile},
	}
	for _, s := range strs {
		if changed(s.name) {
			if *s.dst, err = flags.GetString(s.name); err != nil {
				return err
			}
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"concurrency", &cfg.Concurrency},
		{"retries", &cfg.Retries},
		{"depth", &cfg.MaxDepth},
		{"max-pages", &cfg.MaxPages},
		{"port", &cfg.Port},
	}
	for _, i := range ints {
		if changed(i.name) {
			if *i.dst, err = flags.GetInt(i.name); err != nil {
				return err
			}
		}
	}

	if changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"same-host", &cfg.SameHost},
		{"json", &cfg.JSONReport},
		{"markdown", &cfg.MarkdownReport},
		{"verbose", &cfg.Verbose},
		{"log-json", &cfg.LogJSON},
	}
	for _, b := range bools {
		if changed(b.name) {
			if *b.dst, err = flags.GetBool(b.name); err != nil {
				return err
			}
		}
	}

	if changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noDB
	}

	if changed("ignore") {
		if cfg.IgnorePatterns, err = flags.GetStringSlice("ignore"); err != nil {
			return err
		}
	}
	if changed("follow") {
		if cfg.FollowPatterns, err = flags.GetStringSlice("follow"); err != nil {
			return err
		}
	}

	return nil
}
