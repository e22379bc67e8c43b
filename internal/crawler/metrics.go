package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalPagesFetched tracks the number of pages successfully fetched and persisted.
	TotalPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_fetched_total",
		Help: "The total number of pages successfully fetched and saved.",
	})
	// TotalFetchErrors tracks the number of fetches that failed or returned an empty body.
	TotalFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_fetch_errors_total",
		Help: "The total number of failed fetch attempts.",
	})
	// TotalLinksExtracted tracks the number of href attributes resolved from HTML pages.
	TotalLinksExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_links_extracted_total",
		Help: "The total number of links extracted from fetched pages.",
	})
	// TotalURLsEnqueued tracks the number of URLs admitted into the frontier.
	TotalURLsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_urls_enqueued_total",
		Help: "The total number of URLs admitted into the crawl frontier.",
	})
)
