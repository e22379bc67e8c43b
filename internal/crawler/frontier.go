package crawler

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Frontier is the shared work queue. Three collections move in lockstep
// under one mutex: pending (FIFO of URLs awaiting a worker), queued (set
// mirror of pending), and visited (every URL ever claimed). A URL that
// reaches visited can never re-enter the frontier.
type Frontier struct {
	mu      sync.Mutex
	pending []string
	queued  map[string]struct{}
	visited map[string]struct{}

	active  atomic.Int64
	domains map[string]struct{}
}

// NewFrontier builds an empty frontier restricted to the given host
// allow-list (compared lowercase, exact).
func NewFrontier(allowedDomains []string) *Frontier {
	domains := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains[d] = struct{}{}
		}
	}
	return &Frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
		domains: domains,
	}
}

// AllowedHost reports whether the URL's host is on the allow-list.
func (f *Frontier) AllowedHost(rawURL string) bool {
	parts, ok := Parse(rawURL)
	if !ok {
		return false
	}
	_, allowed := f.domains[parts.Host]
	return allowed
}

// Enqueue admits a URL into pending. The fragment is stripped first;
// empty URLs, hosts outside the allow-list, and URLs already queued or
// visited are rejected. Returns true when the URL was accepted.
func (f *Frontier) Enqueue(rawURL string) bool {
	normalized := StripFragment(rawURL)
	if normalized == "" || !f.AllowedHost(normalized) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.visited[normalized]; seen {
		return false
	}
	if _, seen := f.queued[normalized]; seen {
		return false
	}
	f.queued[normalized] = struct{}{}
	f.pending = append(f.pending, normalized)
	return true
}

// Claim pops the head of pending, moves it from queued into visited, and
// bumps the active-worker counter. The false return means pending was
// empty and nothing changed.
func (f *Frontier) Claim() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return "", false
	}
	url := f.pending[0]
	f.pending = f.pending[1:]
	delete(f.queued, url)
	f.visited[url] = struct{}{}
	f.active.Add(1)
	return url, true
}

// Release marks a claimed URL as fully processed. The counter never goes
// below zero even if Release is called without a matching Claim.
func (f *Frontier) Release() {
	if f.active.Add(-1) < 0 {
		f.active.Store(0)
	}
}

// ShouldStop is the termination predicate: no pending work and no worker
// mid-flight. A worker observing this may broadcast the stop.
func (f *Frontier) ShouldStop() bool {
	f.mu.Lock()
	empty := len(f.pending) == 0
	f.mu.Unlock()
	return empty && f.active.Load() == 0
}

// VisitedCount returns how many URLs have been claimed so far.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
