// Package cmd defines and implements the CLI commands for the
// falcongraph executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command. Invoking the
// binary with no arguments runs the crawl, so day-to-day use needs no
// flags at all; behavior is driven by config/pipeline.json.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "falcongraph",
		Short: "A parallel crawler that ingests a campus web presence into a local corpus.",
		Long: `falcongraph crawls a university's web presence starting from a seed URL,
bounded by a domain allow-list and an extension filter. Fetched pages land
under raw_output/ as HTML and binary artifacts plus an append-only
metadata.tsv that the downstream graph and retrieval tooling consumes.`,

		RunE:          runCrawlCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default discovers config/pipeline.json upward from the working directory)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newLinkMapCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "falcongraph: %v\n", err)
		os.Exit(1)
	}
}
