package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/textcrawl/internal/config"
	"github.com/nao1215/textcrawl/internal/database"
	"github.com/nao1215/textcrawl/internal/search"
	"github.com/nao1215/textcrawl/internal/server"
	"github.com/nao1215/textcrawl/internal/store"
)

// NewSearchCmd creates the search subcommand.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search stored pages for a term",
		Long: `Search prints the id of every stored page whose text contains the term.
Matching ignores case. Multiple arguments are joined with spaces.

When the crawl history database knows a page, its source URL is printed
next to the id.`,
		Example: `  textcrawl search netflix
  textcrawl search --json "open source"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir, "Directory of stored page text")
	cmd.Flags().BoolP("json", "j", false, `Output {"results": [...]} like the HTTP API`)

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer := setupLogger(cmd, cfg)
	defer closer.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	st, err := store.New(cfg.OutputDir, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open page store: %w", err)
	}

	ids, err := search.New(st, search.WithLogger(logger)).Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.JSONReport {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(server.SearchResponse{Results: ids})
	}

	if len(ids) == 0 {
		fmt.Fprintln(out, "No pages found.")
		return nil
	}

	db := openHistory(cfg.DBDir)
	if db != nil {
		defer db.Close()
	}
	for _, id := range ids {
		if u := lookupURL(ctx, db, id); u != "" {
			fmt.Fprintf(out, "%s\t%s\n", id, u)
			continue
		}
		fmt.Fprintln(out, id)
	}
	return nil
}

// openHistory opens an existing database read-mostly. It returns nil when
// there is no database yet.
func openHistory(dir string) *database.CrawlDB {
	if dir == "" {
		return nil
	}
	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil
	}
	return db
}

func lookupURL(ctx context.Context, db *database.CrawlDB, id string) string {
	if db == nil {
		return ""
	}
	u, err := db.PageURL(ctx, id)
	if err != nil {
		return ""
	}
	return u
}
