package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/textcrawl/internal/config"
	"github.com/nao1215/textcrawl/internal/crawler"
	"github.com/nao1215/textcrawl/internal/database"
	"github.com/nao1215/textcrawl/internal/extractor"
	"github.com/nao1215/textcrawl/internal/fetcher"
	applog "github.com/nao1215/textcrawl/internal/log"
	"github.com/nao1215/textcrawl/internal/metrics"
	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/report"
	"github.com/nao1215/textcrawl/internal/store"
)

// saveTimeout bounds writing a run to the database after the run's own
// context may already be cancelled.
const saveTimeout = 10 * time.Second

// loadConfig builds the effective configuration for cmd:
// defaults < config file < environment < flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if f := cmd.Flags().Lookup("config"); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// setupLogger creates the process logger and makes it the slog default.
func setupLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, io.Closer) {
	logger, closer := applog.New(applog.Options{
		Writer:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
	})
	slog.SetDefault(logger)
	return logger, closer
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openDB opens the crawl history database, or returns nil when saving is
// disabled.
func openDB(cfg *config.Config, logger *slog.Logger) (*database.CrawlDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// newFetcher builds a fetcher from cfg, including per-site headers.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithRetries(cfg.Retries),
		fetcher.WithRetryBackoff(cfg.RetryBackoff),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithMaxRedirects(cfg.MaxRedirects),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithLogger(logger),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetcher.WithProxy(cfg.ProxyAddress))
	}

	if sites := cfg.SiteConfigs; sites != nil {
		opts = append(opts, fetcher.WithDefaultHeaders(fetcher.HostHeaders{
			Headers: sites.Defaults.Headers,
			Cookie:  sites.Defaults.Cookie,
		}))
		for _, host := range sites.Hosts() {
			sc := sites.GetSiteConfig(host)
			if len(sc.Headers) == 0 && sc.Cookie == "" {
				continue
			}
			opts = append(opts, fetcher.WithHostHeaders(host, fetcher.HostHeaders{
				Headers: sc.Headers,
				Cookie:  sc.Cookie,
			}))
		}
	}

	return fetcher.New(opts...)
}

// newCrawler wires a crawler from cfg. m and db may be nil.
func newCrawler(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, db *database.CrawlDB) (*crawler.Crawler, error) {
	f, err := newFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	st, err := store.New(cfg.OutputDir, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open page store: %w", err)
	}

	opts := []crawler.Option{
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithSameHost(cfg.SameHost),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithExtractor(extractor.New()),
		crawler.WithMetrics(m),
		crawler.WithLogger(logger),
	}
	if db != nil {
		opts = append(opts, crawler.WithRecorder(db))
	}
	if sites := cfg.SiteConfigs; sites != nil {
		for _, host := range sites.Hosts() {
			sc := sites.GetSiteConfig(host)
			if len(sc.IgnorePatterns) > 0 || len(sc.FollowPatterns) > 0 {
				opts = append(opts, crawler.WithHostPatterns(host, sc.IgnorePatterns, sc.FollowPatterns))
			}
		}
	}

	return crawler.New(f, st, opts...), nil
}

// saveRun records a finished run. A nil db is a no-op.
func saveRun(db *database.CrawlDB, summary *model.Summary, logger *slog.Logger) {
	if db == nil || summary == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := db.SaveRun(ctx, summary); err != nil {
		logger.Error("failed to save run", "run_id", summary.RunID, "error", err)
		return
	}
	logger.Info("run saved to database", "run_id", summary.RunID)
}

// writeSummary outputs a run summary in the requested format.
func writeSummary(cmd *cobra.Command, cfg *config.Config, summary *model.Summary) error {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(summary)
	return err
}
