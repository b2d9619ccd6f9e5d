package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for textcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textcrawl",
		Short: "Crawl web pages, store their text, and search it",
		Long: `textcrawl crawls the web from a list of seed URLs, extracts the visible
text of every HTML page it reaches, and stores one text file per page.

The stored pages can be searched from the command line or over HTTP with
a case-insensitive substring match.

Settings come from a .textcrawl YAML file (see "textcrawl init"),
TEXTCRAWL_* environment variables, and flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .textcrawl in current or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("log-file", "", "Write logs to a rotating file instead of stderr")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
