// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// configRelPath is where the pipeline config lives relative to the repo
// root. The directory that contains it anchors all relative output paths.
const configRelPath = "config/pipeline.json"

// DefaultExtensions is the admission allow-list applied when the config
// does not override it.
var DefaultExtensions = []string{
	".html", ".htm", ".php", ".asp", ".aspx", ".jsp",
	".pdf", ".txt", ".json", ".csv", ".xml",
	".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
	".rtf", ".srt", ".vtt", ".jpg", ".jpeg", ".png",
	".gif", ".svg", ".zip", ".tar", ".gz", ".mp3", ".mp4",
}

// Config captures every configuration knob of the crawl pipeline. All
// values originate from Viper so behavior can be driven by the config
// file with environment overrides.
type Config struct {
	StartURL           string   `mapstructure:"start_url"`
	AllowedDomains     []string `mapstructure:"allowed_domains"`
	RawOutput          string   `mapstructure:"raw_output"`
	MaxPages           int64    `mapstructure:"max_pages"`
	Delay              float64  `mapstructure:"delay"`
	Timeout            float64  `mapstructure:"timeout"`
	CrawlerThreads     int      `mapstructure:"crawler_threads"`
	Extensions         []string `mapstructure:"extensions"`
	LinkDB             string   `mapstructure:"link_db"`
	LinkMapOutput      string   `mapstructure:"link_map_output"`
	MaxPageBytes       int64    `mapstructure:"max_page_bytes"`
	MetricsPort        int      `mapstructure:"metrics_port"`
	DevelopmentLogging bool     `mapstructure:"development_logging"`

	// RepoRoot is the directory relative paths resolve against; Source
	// is the config file actually read, or "defaults".
	RepoRoot string `mapstructure:"-"`
	Source   string `mapstructure:"-"`
}

// FindRepoRoot walks upward from start looking for a directory that
// contains config/pipeline.json. The boolean is false when no ancestor
// qualifies, in which case start itself is returned.
func FindRepoRoot(start string) (string, bool) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, configRelPath)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, false
		}
		dir = parent
	}
}

// Load builds a Config. With an empty path the repo root is discovered
// by walking upward from the working directory; a missing config file is
// not an error and yields the defaults. A present but unparseable file
// fails, and so does a loaded config that fails Validate.
func Load(path string) (Config, error) {
	var root string
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		root, _ = FindRepoRoot(cwd)
		path = filepath.Join(root, configRelPath)
	} else {
		root = rootForConfig(path)
	}

	v := viper.New()
	v.SetEnvPrefix("FALCONGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	source := "defaults"
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		source = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.RepoRoot = root
	cfg.Source = source
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("start_url", "https://www.bgsu.edu")
	v.SetDefault("allowed_domains", []string{"www.bgsu.edu", "bgsu.edu"})
	v.SetDefault("raw_output", "data/raw")
	v.SetDefault("max_pages", -1)
	v.SetDefault("delay", 0.25)
	v.SetDefault("timeout", 20.0)
	v.SetDefault("crawler_threads", 0)
	v.SetDefault("extensions", DefaultExtensions)
	v.SetDefault("link_db", "")
	v.SetDefault("link_map_output", "data/link_map.json")
	v.SetDefault("max_page_bytes", 5*1024*1024)
	v.SetDefault("metrics_port", 0)
	v.SetDefault("development_logging", true)
}

// normalize applies the post-load fixups: lowercase domains, dot-prefix
// extensions, paths resolved against the repo root, and the
// hardware-concurrency fallback for the worker count.
func (c *Config) normalize() {
	for i, domain := range c.AllowedDomains {
		c.AllowedDomains[i] = strings.ToLower(strings.TrimSpace(domain))
	}
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	c.RawOutput = resolvePath(c.RepoRoot, c.RawOutput)
	if c.LinkDB != "" {
		c.LinkDB = resolvePath(c.RepoRoot, c.LinkDB)
	}
	c.LinkMapOutput = resolvePath(c.RepoRoot, c.LinkMapOutput)
	if c.CrawlerThreads <= 0 {
		c.CrawlerThreads = hardwareConcurrency()
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.StartURL) == "" {
		return fmt.Errorf("start_url must be set")
	}
	if len(c.AllowedDomains) == 0 {
		return fmt.Errorf("allowed_domains must include at least one host")
	}
	if c.RawOutput == "" {
		return fmt.Errorf("raw_output must be set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if c.MaxPageBytes <= 0 {
		return fmt.Errorf("max_page_bytes must be > 0")
	}
	if c.MetricsPort < 0 {
		return fmt.Errorf("metrics_port must be >= 0")
	}
	return nil
}

// DelayDuration converts the per-request delay into a time.Duration.
func (c Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// TimeoutDuration converts the per-request timeout into a time.Duration.
func (c Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

func resolvePath(root, raw string) string {
	if raw == "" {
		return root
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(root, raw)
}

// rootForConfig anchors relative paths for an explicitly-given config
// file: the grandparent when the file sits in the conventional config/
// directory, otherwise the file's own directory.
func rootForConfig(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == "config" {
		return filepath.Dir(dir)
	}
	return dir
}

func hardwareConcurrency() int {
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 1
}
