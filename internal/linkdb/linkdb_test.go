package linkdb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, "crawl.db"))
	require.NoError(t, err)
}

func TestAddPageUpserts(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.AddPage(ctx, "http://t/a", "html/a.html", "text/html"))
	require.NoError(t, db.AddPage(ctx, "http://t/a", "html/a2.html", "text/html"))

	linkMap, err := db.readGraph(ctx)
	require.NoError(t, err)
	require.Len(t, linkMap.Nodes, 1)
	require.Equal(t, "html/a2.html", linkMap.Nodes[0].Path, "second insert wins")
}

func TestAddEdgesPreservesOrder(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.AddEdges(ctx, "http://t/a", []string{"http://t/b", "http://t/c", "http://t/b"}))
	require.NoError(t, db.AddEdges(ctx, "http://t/a", nil), "no targets is a no-op")

	linkMap, err := db.readGraph(ctx)
	require.NoError(t, err)
	require.Len(t, linkMap.Edges, 3)
	require.Equal(t, "http://t/b", linkMap.Edges[0].Target)
	require.Equal(t, 0, linkMap.Edges[0].Position)
	require.Equal(t, "http://t/c", linkMap.Edges[1].Target)
	require.Equal(t, "http://t/b", linkMap.Edges[2].Target, "duplicate href occurrences are kept")
}

func TestExportWritesJSONWithDegrees(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.AddPage(ctx, "http://t/a", "html/a.html", "text/html"))
	require.NoError(t, db.AddPage(ctx, "http://t/b", "html/b.html", "text/html"))
	require.NoError(t, db.AddEdges(ctx, "http://t/a", []string{"http://t/b", "http://other/x"}))
	require.NoError(t, db.AddEdges(ctx, "http://t/b", []string{"http://t/a"}))

	outPath := filepath.Join(t.TempDir(), "graph", "link_map.json")
	linkMap, err := db.Export(ctx, outPath)
	require.NoError(t, err)
	require.Len(t, linkMap.Nodes, 2)
	require.Len(t, linkMap.Edges, 3)

	degrees := make(map[string][2]int)
	for _, node := range linkMap.Nodes {
		degrees[node.URL] = [2]int{node.OutDegree, node.InDegree}
	}
	require.Equal(t, [2]int{2, 1}, degrees["http://t/a"])
	require.Equal(t, [2]int{1, 1}, degrees["http://t/b"])

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var decoded LinkMap
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, linkMap, decoded)
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(n int) {
			url := "http://t/p" + string(rune('a'+n))
			if err := db.AddPage(ctx, url, "html/p.html", "text/html"); err != nil {
				done <- err
				return
			}
			done <- db.AddEdges(ctx, url, []string{"http://t/next"})
		}(i)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	linkMap, err := db.readGraph(ctx)
	require.NoError(t, err)
	require.Len(t, linkMap.Nodes, 8)
	require.Len(t, linkMap.Edges, 8)
}
