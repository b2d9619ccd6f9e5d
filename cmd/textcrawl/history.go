package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/textcrawl/internal/model"
	"github.com/nao1215/textcrawl/internal/report"
)

// defaultHistoryLimit is how many runs "history" lists by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history subcommand.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded crawl runs",
		Long: `History lists past crawl runs from the crawl history database, most
recent first. Given a run id, it prints that run's summary including
every failed URL.`,
		Example: `  textcrawl history
  textcrawl history --limit 5
  textcrawl history 6f1c0d1e-2b7a-4c44-9d7e-1f0e9b3a8c21`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Number of runs to list (0 for all)")
	addReportFlags(cmd)

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer := setupLogger(cmd, cfg)
	defer closer.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	out := cmd.OutOrStdout()
	db := openHistory(cfg.DBDir)
	if db == nil {
		logger.Debug("no crawl history database", "dir", cfg.DBDir)
		if len(args) == 1 {
			return fmt.Errorf("run %s not found", args[0])
		}
		_, err := report.NewRunsWriter(out).WriteRuns(nil)
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		rec, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		dead, err := db.DeadURLs(ctx, rec.ID)
		if err != nil {
			return err
		}

		summary := rec.Summary()
		for _, d := range dead {
			summary.Failures = append(summary.Failures, model.Failure{
				URL:     d.URL,
				Stage:   d.Stage,
				Kind:    d.Kind,
				Message: d.Message,
			})
		}
		// A single run is shown in full.
		cfg.Verbose = true
		return writeSummary(cmd, cfg, summary)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	records, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	runs := make([]*model.Summary, 0, len(records))
	for i := range records {
		runs = append(runs, records[i].Summary())
	}
	_, err = report.NewRunsWriter(out).WriteRuns(runs)
	return err
}
