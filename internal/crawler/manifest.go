package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Manifest is the machine-readable record of one crawl run, written next
// to the corpus so downstream tooling can tell runs apart.
type Manifest struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	PagesDownloaded int64          `json:"pages_downloaded"`
	FetchFailures   int64          `json:"fetch_failures"`
	URLsSeen        int            `json:"urls_seen"`
	Config          ManifestConfig `json:"config"`
}

// ManifestConfig snapshots the knobs that shaped the run.
type ManifestConfig struct {
	StartURL       string   `json:"start_url"`
	AllowedDomains []string `json:"allowed_domains"`
	MaxPages       int64    `json:"max_pages"`
	Workers        int      `json:"workers"`
	DelaySeconds   float64  `json:"delay_seconds"`
}

// WriteManifest serializes the manifest to path, replacing any previous
// run's record.
func WriteManifest(path string, m Manifest) error {
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
