package crawler

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrontierEnqueueAdmission(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"T", " www.bgsu.edu "})

	require.True(t, f.Enqueue("http://t/a"), "allow-listed host admitted")
	require.True(t, f.Enqueue("https://WWW.BGSU.EDU/b"), "host compare is case-insensitive")
	require.False(t, f.Enqueue("http://other/x"), "host outside allow-list rejected")
	require.False(t, f.Enqueue(""), "empty rejected")
	require.False(t, f.Enqueue("not-a-url"), "unparseable rejected")
	require.False(t, f.Enqueue("http://t/a"), "duplicate rejected while queued")
}

func TestFrontierFragmentStrippedBeforeDedupe(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"t"})
	require.True(t, f.Enqueue("http://t/a"))
	require.False(t, f.Enqueue("http://t/a#section"), "same URL modulo fragment")
}

func TestFrontierClaimIsFIFO(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"t"})
	require.True(t, f.Enqueue("http://t/a"))
	require.True(t, f.Enqueue("http://t/b"))
	require.True(t, f.Enqueue("http://t/c"))

	for _, want := range []string{"http://t/a", "http://t/b", "http://t/c"} {
		url, ok := f.Claim()
		require.True(t, ok)
		require.Equal(t, want, url)
	}
	_, ok := f.Claim()
	require.False(t, ok, "drained frontier returns no work")
}

func TestFrontierVisitedNeverReadmitted(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"t"})
	require.True(t, f.Enqueue("http://t/a"))
	url, ok := f.Claim()
	require.True(t, ok)
	require.Equal(t, "http://t/a", url)
	f.Release()

	require.False(t, f.Enqueue("http://t/a"), "claimed URL stays visited forever")
	require.Equal(t, 1, f.VisitedCount())
}

func TestFrontierShouldStop(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"t"})
	require.True(t, f.ShouldStop(), "empty frontier with no active workers stops")

	require.True(t, f.Enqueue("http://t/a"))
	require.False(t, f.ShouldStop(), "pending work defers stop")

	_, ok := f.Claim()
	require.True(t, ok)
	require.False(t, f.ShouldStop(), "an active worker defers stop even when pending is empty")

	f.Release()
	require.True(t, f.ShouldStop())
}

func TestFrontierReleaseNeverGoesNegative(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"t"})
	f.Release()
	f.Release()
	require.True(t, f.ShouldStop())
}

func TestFrontierConcurrentClaimYieldsUniqueURLs(t *testing.T) {
	t.Parallel()

	f := NewFrontier([]string{"t"})
	const total = 200
	for i := 0; i < total; i++ {
		require.True(t, f.Enqueue("http://t/page/"+strconv.Itoa(i)))
	}

	var mu sync.Mutex
	claimed := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				url, ok := f.Claim()
				if !ok {
					return
				}
				mu.Lock()
				claimed[url]++
				mu.Unlock()
				f.Release()
			}
		}()
	}
	wg.Wait()

	require.Len(t, claimed, total)
	for url, count := range claimed {
		require.Equal(t, 1, count, "url %s claimed more than once", url)
	}
}
