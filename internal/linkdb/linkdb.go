// Package linkdb provides SQLite-based storage for the link graph a
// crawl discovers: one row per fetched page, one row per outbound edge.
// The database feeds the linkmap export and the downstream graph
// tooling without forcing them to re-parse the HTML corpus.
package linkdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the SQLite connection holding the crawl's link graph.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the link database at dir/crawl.db. WAL mode is
// enabled so the single writer does not starve concurrent readers.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create link db directory: %w", err)
	}
	dbPath := filepath.Join(dir, "crawl.db")

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open link db: %w", err)
	}

	// SQLite supports one writer; a second connection would only block.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &DB{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := ldb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return ldb, nil
}

// Close closes the database connection.
func (l *DB) Close() error {
	return l.db.Close()
}

func (l *DB) createTables() error {
	schema := `
	-- One row per fetched page, keyed by canonical URL.
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		content_type TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per href occurrence, in textual order within the page.
	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
	`
	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// AddPage records a fetched page. Re-fetching the same URL (which the
// frontier prevents within a run) upserts the row.
func (l *DB) AddPage(ctx context.Context, url, path, contentType string) error {
	query := `
	INSERT INTO pages (url, path, content_type)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		path = excluded.path,
		content_type = excluded.content_type,
		fetched_at = CURRENT_TIMESTAMP
	`
	if _, err := l.db.ExecContext(ctx, query, url, path, contentType); err != nil {
		return fmt.Errorf("insert page %s: %w", url, err)
	}
	return nil
}

// AddEdges records the outbound links of one page in a single
// transaction, preserving their textual order as position.
func (l *DB) AddEdges(ctx context.Context, source string, targets []string) error {
	if len(targets) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin edges transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO edges (source, target, position) VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare edge insert: %w", err)
	}
	defer stmt.Close()

	for i, target := range targets {
		if _, err := stmt.ExecContext(ctx, source, target, i); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert edge %s -> %s: %w", source, target, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit edges: %w", err)
	}
	return nil
}
