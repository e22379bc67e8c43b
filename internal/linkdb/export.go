package linkdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Node is one page in the exported link map, annotated with its degree
// counts so consumers can size the graph without walking the edges.
type Node struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	OutDegree   int    `json:"out_degree"`
	InDegree    int    `json:"in_degree"`
}

// Edge is one href occurrence: source page, resolved target, and the
// target's textual position within the page.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Position int    `json:"position"`
}

// LinkMap is the export shape written as JSON.
type LinkMap struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Export reads the whole graph and writes it as a single JSON document
// at outPath, creating parent directories as needed.
func (l *DB) Export(ctx context.Context, outPath string) (LinkMap, error) {
	linkMap, err := l.readGraph(ctx)
	if err != nil {
		return LinkMap{}, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return LinkMap{}, fmt.Errorf("create link map directory: %w", err)
	}
	payload, err := json.MarshalIndent(linkMap, "", "  ")
	if err != nil {
		return LinkMap{}, fmt.Errorf("marshal link map: %w", err)
	}
	if err := os.WriteFile(outPath, append(payload, '\n'), 0o600); err != nil {
		return LinkMap{}, fmt.Errorf("write link map %s: %w", outPath, err)
	}
	return linkMap, nil
}

func (l *DB) readGraph(ctx context.Context) (LinkMap, error) {
	var linkMap LinkMap

	outDegree := make(map[string]int)
	inDegree := make(map[string]int)

	rows, err := l.db.QueryContext(ctx, "SELECT source, target, position FROM edges ORDER BY source, position")
	if err != nil {
		return LinkMap{}, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var edge Edge
		if err := rows.Scan(&edge.Source, &edge.Target, &edge.Position); err != nil {
			return LinkMap{}, fmt.Errorf("scan edge: %w", err)
		}
		outDegree[edge.Source]++
		inDegree[edge.Target]++
		linkMap.Edges = append(linkMap.Edges, edge)
	}
	if err := rows.Err(); err != nil {
		return LinkMap{}, fmt.Errorf("iterate edges: %w", err)
	}

	pageRows, err := l.db.QueryContext(ctx, "SELECT url, path, COALESCE(content_type, '') FROM pages ORDER BY url")
	if err != nil {
		return LinkMap{}, fmt.Errorf("query pages: %w", err)
	}
	defer pageRows.Close()
	for pageRows.Next() {
		var node Node
		if err := pageRows.Scan(&node.URL, &node.Path, &node.ContentType); err != nil {
			return LinkMap{}, fmt.Errorf("scan page: %w", err)
		}
		node.OutDegree = outDegree[node.URL]
		node.InDegree = inDegree[node.URL]
		linkMap.Nodes = append(linkMap.Nodes, node)
	}
	if err := pageRows.Err(); err != nil {
		return LinkMap{}, fmt.Errorf("iterate pages: %w", err)
	}

	return linkMap, nil
}
