package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// idleWait is how long a worker naps when the frontier is momentarily
// empty but siblings are still mid-fetch.
const idleWait = 50 * time.Millisecond

// Config holds the settings for one crawl run. It is decoupled from
// Viper so the engine stays testable without a config file.
type Config struct {
	StartURL          string
	AllowedDomains    []string
	AllowedExtensions []string
	Workers           int
	MaxPages          int64
	Delay             time.Duration
}

// Engine owns a crawl run: the frontier, the worker pool, and the
// counters. All run state lives on the instance so several engines can
// coexist in one process.
type Engine struct {
	cfg      Config
	frontier *Frontier
	fetcher  Fetcher
	sink     Sink
	links    LinkStore
	pauser   Pauser
	logger   *zap.Logger

	extensions map[string]struct{}
	stop       atomic.Bool
	pages      atomic.Int64
	failures   atomic.Int64
}

// Stats is the end-of-run summary an engine reports.
type Stats struct {
	PagesDownloaded int64
	FetchFailures   int64
	URLsSeen        int
}

// NewEngine wires an engine from its capabilities. links may be nil to
// disable link-graph capture; a nil pauser falls back to TimerPauser and
// a nil logger to a no-op logger.
func NewEngine(cfg Config, fetcher Fetcher, sink Sink, links LinkStore, pauser Pauser, logger *zap.Logger) *Engine {
	if pauser == nil {
		pauser = TimerPauser{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	extensions := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}
	return &Engine{
		cfg:        cfg,
		frontier:   NewFrontier(cfg.AllowedDomains),
		fetcher:    fetcher,
		sink:       sink,
		links:      links,
		pauser:     pauser,
		logger:     logger,
		extensions: extensions,
	}
}

// Run seeds the frontier and blocks until the reachable set is
// exhausted, the page cap is hit, or the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.frontier.Enqueue(e.cfg.StartURL) {
		return fmt.Errorf("start url %q was not admitted; check allowed_domains", e.cfg.StartURL)
	}
	TotalURLsEnqueued.Inc()

	var g errgroup.Group
	for i := 0; i < e.cfg.Workers; i++ {
		worker := e.logger.Named("worker").With(zap.Int("index", i))
		g.Go(func() error {
			e.work(ctx, worker)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	return ctx.Err()
}

// Stats reports the counters accumulated so far. Safe to call after Run
// returns or concurrently with it.
func (e *Engine) Stats() Stats {
	return Stats{
		PagesDownloaded: e.pages.Load(),
		FetchFailures:   e.failures.Load(),
		URLsSeen:        e.frontier.VisitedCount(),
	}
}

// work is the per-goroutine loop: claim, fetch, persist, extract,
// enqueue, delay, release. A worker exits when the stop flag is set,
// when the termination predicate holds, or on a disk failure (the run
// continues on the surviving workers).
func (e *Engine) work(ctx context.Context, logger *zap.Logger) {
	for {
		if e.stop.Load() || ctx.Err() != nil {
			return
		}
		url, ok := e.frontier.Claim()
		if !ok {
			if e.frontier.ShouldStop() {
				e.stop.Store(true)
				return
			}
			e.pauser.Pause(ctx, idleWait)
			continue
		}
		err := e.process(ctx, url, logger)
		e.frontier.Release()
		if err != nil {
			logger.Error("worker exiting", zap.Error(err))
			return
		}
	}
}

// process handles a single claimed URL. A returned error is fatal for
// this worker only; global stop is signaled through the stop flag.
func (e *Engine) process(ctx context.Context, url string, logger *zap.Logger) error {
	if e.cfg.MaxPages >= 0 && e.pages.Load() >= e.cfg.MaxPages {
		e.stop.Store(true)
		return nil
	}

	result, err := e.fetcher.Fetch(ctx, url)
	if err != nil || len(result.Body) == 0 {
		e.failures.Add(1)
		TotalFetchErrors.Inc()
		if err != nil {
			logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		} else {
			logger.Warn("fetch returned empty body", zap.String("url", url))
		}
		e.pauser.Pause(ctx, e.cfg.Delay)
		return nil
	}

	parts, ok := Parse(url)
	if !ok {
		e.pauser.Pause(ctx, e.cfg.Delay)
		return nil
	}

	artifact, err := e.sink.Save(ctx, Page{
		URL:         url,
		Parts:       parts,
		Body:        result.Body,
		ContentType: result.ContentType,
	})
	if err != nil {
		return fmt.Errorf("persist %s: %w", url, err)
	}
	TotalPagesFetched.Inc()

	if e.links != nil {
		if lerr := e.links.AddPage(ctx, url, artifact.Path, result.ContentType); lerr != nil {
			logger.Warn("link store page insert failed", zap.String("url", url), zap.Error(lerr))
		}
	}

	if artifact.Class == ClassHTML {
		e.followLinks(ctx, url, result.Body, logger)
	}

	downloaded := e.pages.Add(1)
	logger.Debug("page saved",
		zap.String("url", url),
		zap.String("path", artifact.Path),
		zap.Int64("pages", downloaded),
	)
	if e.cfg.MaxPages >= 0 && downloaded >= e.cfg.MaxPages {
		e.stop.Store(true)
	}

	e.pauser.Pause(ctx, e.cfg.Delay)
	return nil
}

// followLinks extracts the page's outbound links, records them in the
// link store, and offers each to the frontier.
func (e *Engine) followLinks(ctx context.Context, pageURL string, body []byte, logger *zap.Logger) {
	links := ExtractLinks(body, pageURL)
	if len(links) == 0 {
		return
	}
	TotalLinksExtracted.Add(float64(len(links)))

	if e.links != nil {
		if err := e.links.AddEdges(ctx, pageURL, links); err != nil {
			logger.Warn("link store edge insert failed", zap.String("url", pageURL), zap.Error(err))
		}
	}

	for _, link := range links {
		if !e.extensionAllowed(link) {
			continue
		}
		if e.frontier.Enqueue(link) {
			TotalURLsEnqueued.Inc()
		}
	}
}

// extensionAllowed applies the extension half of admission: extension-less
// URLs pass (they are almost always HTML pages), everything else must be
// on the allow-list. Download-intent query hints (QueryIndicatesDownload)
// do not override the extension filter.
func (e *Engine) extensionAllowed(rawURL string) bool {
	ext := Extension(rawURL)
	if ext == "" {
		return true
	}
	_, ok := e.extensions[ext]
	return ok
}
