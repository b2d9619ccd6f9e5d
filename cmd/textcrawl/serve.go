package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/textcrawl/internal/config"
	"github.com/nao1215/textcrawl/internal/crawler"
	"github.com/nao1215/textcrawl/internal/metrics"
	"github.com/nao1215/textcrawl/internal/search"
	"github.com/nao1215/textcrawl/internal/server"
	"github.com/nao1215/textcrawl/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search page and HTTP API",
		Long: `Serve starts the HTTP server:

  GET /                    search page
  GET /search?searchTerm=  {"results": [page ids]}
  GET /pages/{id}          stored text of one page
  GET /status              progress of the background crawl
  GET /healthz             liveness check
  GET /metrics             Prometheus metrics

With --crawl, a crawl of the configured seeds runs in the background
while the server answers requests. Searches see pages as they are stored.`,
		Example: `  textcrawl serve
  textcrawl serve --port 8080 --crawl`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "P", config.DefaultPort, "Port to listen on (env PORT)")
	cmd.Flags().Bool("crawl", false, "Crawl the configured seeds in the background")
	addCrawlFlags(cmd)

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	withCrawl, err := cmd.Flags().GetBool("crawl")
	if err != nil {
		return err
	}
	if withCrawl {
		if err := cfg.ValidateSeeds(); err != nil {
			return err
		}
	}

	logger, closer := setupLogger(cmd, cfg)
	defer closer.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	m := metrics.New()

	db, err := openDB(cfg, logger)
	if err != nil {
		logger.Warn("crawl history disabled", "error", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	st, err := store.New(cfg.OutputDir, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open page store: %w", err)
	}

	opts := []server.Option{
		server.WithMetrics(m),
		server.WithLogger(logger),
	}
	if db != nil {
		opts = append(opts, server.WithPageLocator(db))
	}

	var run *crawler.Run
	crawlDone := make(chan struct{})
	if withCrawl {
		c, err := newCrawler(cfg, logger, m, db)
		if err != nil {
			return err
		}
		run, err = c.Start(ctx, cfg.Seeds)
		if err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		opts = append(opts, server.WithProgress(run.Progress))

		go func() {
			defer close(crawlDone)
			summary := run.Wait()
			logger.Info("background crawl finished",
				"run_id", summary.RunID,
				"stored", summary.PagesStored,
				"failed", summary.PagesFailed,
				"cancelled", summary.Cancelled,
			)
			saveRun(db, summary, logger)
		}()
	} else {
		close(crawlDone)
	}

	srv := server.New(search.New(st, search.WithLogger(logger)), st, opts...)
	addr := server.Addr(cfg.Port)
	logger.Info("listening", "addr", addr, "output_dir", cfg.OutputDir)

	serveErr := srv.ListenAndServe(ctx, addr)

	if run != nil {
		run.Cancel()
	}
	<-crawlDone

	return serveErr
}
