// Package crawler implements the parallel crawl engine: the shared URL
// frontier, the worker loop, link extraction, and the capability
// interfaces the engine is wired with.
package crawler
