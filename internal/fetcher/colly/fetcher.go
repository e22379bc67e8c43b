// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/falcongraph/crawler/internal/crawler"
)

// UserAgent identifies the crawler on the wire.
const UserAgent = "FalconGraphCrawler/1.0"

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int64
}

// Fetcher implements crawler.Fetcher using the Colly collector. The base
// collector holds the pooled transport; every Fetch clones it so the
// per-request callbacks never race.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher. Robots handling is explicitly disabled here so
// the ignore is a decision rather than an accident of defaults.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.MaxBodySize > 0 {
		c.MaxBodySize = int(cfg.MaxBodySize)
	}

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET. Redirects are followed by the
// underlying client; the result carries the final body and the trimmed
// Content-Type header. Network failures and non-2xx statuses surface as
// errors with an empty result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.FetchResult, error) {
	var (
		result   crawler.FetchResult
		fetchErr error
	)

	collector := f.baseCollector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		result = crawler.FetchResult{
			Body:        append([]byte(nil), r.Body...),
			ContentType: strings.TrimSpace(r.Headers.Get("Content-Type")),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, rawURL); err != nil {
		return crawler.FetchResult{}, err
	}
	if fetchErr != nil {
		return crawler.FetchResult{}, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}
	return result, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", rawURL, err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
