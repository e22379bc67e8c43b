package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/falcongraph/crawler/internal/api"
	"github.com/falcongraph/crawler/internal/clock/system"
	"github.com/falcongraph/crawler/internal/config"
	"github.com/falcongraph/crawler/internal/crawler"
	collyfetcher "github.com/falcongraph/crawler/internal/fetcher/colly"
	"github.com/falcongraph/crawler/internal/linkdb"
	"github.com/falcongraph/crawler/internal/logging"
	fssink "github.com/falcongraph/crawler/internal/sink/fs"
)

// newCrawlCmd creates and configures the 'crawl' subcommand, the
// explicit spelling of what the bare binary does.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Starts the parallel crawl",
		Long: `Seeds the frontier with start_url and runs crawler_threads workers until
the reachable set is exhausted or max_pages successful fetches complete.`,

		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.DevelopmentLogging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, err := fssink.New(cfg.RawOutput, logger.Named("sink"))
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Warn("sink close failed", zap.Error(cerr))
		}
	}()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   collyfetcher.UserAgent,
		Timeout:     cfg.TimeoutDuration(),
		MaxBodySize: cfg.MaxPageBytes,
	})

	var links crawler.LinkStore
	if cfg.LinkDB != "" {
		db, err := linkdb.Open(cfg.LinkDB)
		if err != nil {
			return fmt.Errorf("open link db: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Warn("link db close failed", zap.Error(cerr))
			}
		}()
		links = db
	}

	shutdownMetrics := startMetricsServer(cfg.MetricsPort, logger)
	defer shutdownMetrics()

	engine := crawler.NewEngine(crawler.Config{
		StartURL:          cfg.StartURL,
		AllowedDomains:    cfg.AllowedDomains,
		AllowedExtensions: cfg.Extensions,
		Workers:           cfg.CrawlerThreads,
		MaxPages:          cfg.MaxPages,
		Delay:             cfg.DelayDuration(),
	}, fetcher, sink, links, crawler.TimerPauser{}, logger.Named("crawler"))

	clock := system.New()
	runID := uuid.NewString()
	started := clock.Now()

	logger.Info("crawl starting",
		zap.String("run_id", runID),
		zap.String("config", cfg.Source),
		zap.String("start_url", cfg.StartURL),
		zap.Strings("allowed_domains", cfg.AllowedDomains),
		zap.Int("workers", cfg.CrawlerThreads),
		zap.Int64("max_pages", cfg.MaxPages),
	)

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawler: %w", err)
	}

	stats := engine.Stats()
	manifest := crawler.Manifest{
		RunID:           runID,
		StartedAt:       started,
		FinishedAt:      clock.Now(),
		PagesDownloaded: stats.PagesDownloaded,
		FetchFailures:   stats.FetchFailures,
		URLsSeen:        stats.URLsSeen,
		Config: crawler.ManifestConfig{
			StartURL:       cfg.StartURL,
			AllowedDomains: cfg.AllowedDomains,
			MaxPages:       cfg.MaxPages,
			Workers:        cfg.CrawlerThreads,
			DelaySeconds:   cfg.Delay,
		},
	}
	manifestPath := filepath.Join(cfg.RawOutput, "manifest.json")
	if err := crawler.WriteManifest(manifestPath, manifest); err != nil {
		logger.Warn("manifest write failed", zap.Error(err))
	}

	logger.Info("crawl finished",
		zap.String("run_id", runID),
		zap.Int64("pages_downloaded", stats.PagesDownloaded),
		zap.Int64("fetch_failures", stats.FetchFailures),
		zap.Int("urls_seen", stats.URLsSeen),
	)
	return nil
}

// startMetricsServer serves /healthz and /metrics on the configured port
// for the duration of the crawl. Returns a shutdown func; a no-op when
// the port is 0.
func startMetricsServer(port int, logger *zap.Logger) func() {
	if port <= 0 {
		return func() {}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewServer(logger.Named("api")).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server started", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown error", zap.Error(err))
		}
	}
}
