package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/textcrawl/internal/config"
)

// NewCrawlCmd creates the crawl subcommand.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl from seed URLs and store the text of every page",
		Long: `Crawl fetches the seed URLs, follows the links it finds, and writes the
visible text of every HTML page to the output directory.

Seeds given as arguments replace the seeds from the config file and the
TEXTCRAWL_SEEDS environment variable.

Press Ctrl+C to stop early; the summary then covers the partial run.`,
		Example: `  textcrawl crawl https://example.com
  textcrawl crawl --depth 2 --same-host https://example.com
  textcrawl crawl --json --report run.json`,
		RunE: runCrawl,
	}

	addCrawlFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Seeds = args
	}
	if err := cfg.ValidateSeeds(); err != nil {
		return fmt.Errorf("%w (pass seed URLs as arguments or set seeds in %s)", err, config.DefaultConfigFile)
	}

	logger, closer := setupLogger(cmd, cfg)
	defer closer.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	db, err := openDB(cfg, logger)
	if err != nil {
		// History is optional; the crawl itself still works.
		logger.Warn("crawl history disabled", "error", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	c, err := newCrawler(cfg, logger, nil, db)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Crawling %d seed(s) into %s...\n", len(cfg.Seeds), cfg.OutputDir)

	summary, err := c.Crawl(ctx, cfg.Seeds)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	saveRun(db, summary, logger)

	return writeSummary(cmd, cfg, summary)
}
