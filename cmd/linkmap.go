package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/falcongraph/crawler/internal/config"
	"github.com/falcongraph/crawler/internal/linkdb"
	"github.com/falcongraph/crawler/internal/logging"
)

// newLinkMapCmd creates the 'linkmap' subcommand: it exports the link
// graph a crawl recorded into its SQLite database as a single JSON
// document for the graph-building tooling.
func newLinkMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "linkmap",
		Short: "Exports the recorded link graph as JSON",
		Long: `Reads the pages and edges a crawl recorded into the link database
(config key link_db) and writes them to link_map_output with degree
counts per node.`,

		RunE: runLinkMapCommand,
	}
}

func runLinkMapCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.LinkDB == "" {
		return fmt.Errorf("link_db must be set in the config to export a link map")
	}

	logger, err := logging.New(cfg.DevelopmentLogging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	db, err := linkdb.Open(cfg.LinkDB)
	if err != nil {
		return fmt.Errorf("open link db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("link db close failed", zap.Error(cerr))
		}
	}()

	linkMap, err := db.Export(cmd.Context(), cfg.LinkMapOutput)
	if err != nil {
		return fmt.Errorf("export link map: %w", err)
	}

	logger.Info("link map exported",
		zap.String("path", cfg.LinkMapOutput),
		zap.Int("nodes", len(linkMap.Nodes)),
		zap.Int("edges", len(linkMap.Edges)),
	)
	return nil
}
