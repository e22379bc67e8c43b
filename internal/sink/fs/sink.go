// Package fssink persists fetched pages to the local filesystem corpus:
// HTML under html/, binaries under files/, one tab-separated metadata
// record per successful fetch.
package fssink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/falcongraph/crawler/internal/crawler"
)

const (
	htmlDirName    = "html"
	filesDirName   = "files"
	metadataName   = "metadata.tsv"
	metadataHeader = "url\tpath\tcontent_type\n"
	maxNameLength  = 240
)

var invalidFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Sink writes the crawl corpus under one root directory.
type Sink struct {
	root   string
	logger *zap.Logger

	metaMu sync.Mutex
	meta   *os.File
}

// New creates the html/ and files/ directories under root and opens the
// metadata log, writing its header if the file is new.
func New(root string, logger *zap.Logger) (*Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{root, filepath.Join(root, htmlDirName), filepath.Join(root, filesDirName)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sink dir %s: %w", dir, err)
		}
	}

	metaPath := filepath.Join(root, metadataName)
	_, statErr := os.Stat(metaPath)
	fresh := os.IsNotExist(statErr)

	meta, err := os.OpenFile(metaPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open metadata log %s: %w", metaPath, err)
	}
	if fresh {
		if _, err := meta.WriteString(metadataHeader); err != nil {
			_ = meta.Close()
			return nil, fmt.Errorf("write metadata header: %w", err)
		}
	}

	return &Sink{root: root, logger: logger, meta: meta}, nil
}

// Save classifies the page, writes the body as a whole file, and appends
// the metadata record. The returned path is relative to the sink root.
func (s *Sink) Save(ctx context.Context, page crawler.Page) (crawler.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return crawler.Artifact{}, fmt.Errorf("context canceled: %w", err)
	}

	contentType := strings.ToLower(page.ContentType)
	isHTML := contentType == "" || strings.Contains(contentType, "text/html")

	var artifact crawler.Artifact
	if isHTML {
		artifact = crawler.Artifact{
			Path:  filepath.Join(htmlDirName, SanitizeFilename(page.Parts, ".html", "html")),
			Class: crawler.ClassHTML,
		}
	} else {
		ext := crawler.Extension(page.URL)
		if ext == "" {
			ext = ".bin"
		}
		artifact = crawler.Artifact{
			Path:  filepath.Join(filesDirName, SanitizeFilename(page.Parts, ext, "file")),
			Class: crawler.ClassFile,
		}
	}

	target := filepath.Join(s.root, artifact.Path)
	if err := os.WriteFile(target, page.Body, 0o600); err != nil {
		return crawler.Artifact{}, fmt.Errorf("write artifact %s: %w", target, err)
	}

	if err := s.appendMetadata(page.URL, artifact.Path, contentType); err != nil {
		return crawler.Artifact{}, err
	}
	return artifact, nil
}

// Close flushes and closes the metadata log.
func (s *Sink) Close() error {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	if err := s.meta.Close(); err != nil {
		return fmt.Errorf("close metadata log: %w", err)
	}
	return nil
}

func (s *Sink) appendMetadata(url, path, contentType string) error {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	if _, err := fmt.Fprintf(s.meta, "%s\t%s\t%s\n", url, path, contentType); err != nil {
		return fmt.Errorf("append metadata for %s: %w", url, err)
	}
	return nil
}

// SanitizeFilename derives the deterministic on-disk name for a URL:
// "{prefix}__{host}{path with / replaced by _}", extension appended when
// not already present in the name, invalid characters collapsed to "_",
// truncated to 240 characters.
func SanitizeFilename(parts crawler.URLParts, extension, prefix string) string {
	path := parts.Path
	if path == "" || path == "/" {
		path = "/index"
	}
	safe := strings.ReplaceAll(path, "/", "_")
	name := prefix + "__" + parts.Host + safe
	if extension != "" && !strings.Contains(name, extension) {
		name += extension
	}
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}
