package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutDir string `toml:"out_dir"`
	LogDir string `toml:"log_dir"`
}

// Steam contains configuration for the storefront reviews endpoint.
type Steam struct {
	AppID          int64  `toml:"app_id"`
	Language       string `toml:"language"`
	MaxReviews     int    `toml:"max_reviews"`
	Filter         string `toml:"filter"`
	OffTopicFilter int    `toml:"off_topic_filter"`
	PageSize       int    `toml:"page_size"`
	RequestTimeout int    `toml:"request_timeout"`
	PageDelayMS    int    `toml:"page_delay_ms"`
}

// Worker contains configuration for the local text-generation worker.
type Worker struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Concurrency    int    `toml:"concurrency"`
}

// Extract contains configuration for the structured-extraction stage.
type Extract struct {
	MinConfidence float64 `toml:"min_confidence"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for reviewforge.
//
// Configuration sections by subsystem:
//   - Paths: output and log directories
//   - Steam: target app, language, paging, and rate limits
//   - Worker: local LLM worker binary, model, timeout, concurrency
//   - Extract: confidence threshold for aggregation
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Steam         Steam         `toml:"steam"`
	Worker        Worker        `toml:"worker"`
	Extract       Extract       `toml:"extract"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/reviewforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found on disk.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reviewforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RawCorpusPath returns the raw review corpus path for an app id.
func (c *Config) RawCorpusPath(appID int64) string {
	return filepath.Join(c.Paths.OutDir, fmt.Sprintf("reviews_%d.jsonl", appID))
}

// SummaryPath returns the query summary path for an app id.
func (c *Config) SummaryPath(appID int64) string {
	return filepath.Join(c.Paths.OutDir, fmt.Sprintf("meta_%d.json", appID))
}

// SentimentCSVPath returns the sentiment results path.
func (c *Config) SentimentCSVPath() string {
	return filepath.Join(c.Paths.OutDir, "sentiment_results.csv")
}

// SentimentSummaryPath returns the sentiment stats summary path.
func (c *Config) SentimentSummaryPath() string {
	return filepath.Join(c.Paths.OutDir, "summary.txt")
}

// StructuredCorpusPath returns the structured extraction corpus path.
func (c *Config) StructuredCorpusPath() string {
	return filepath.Join(c.Paths.OutDir, "review_summaries.jsonl")
}

// InsightsAggregatePath returns the category aggregate CSV path.
func (c *Config) InsightsAggregatePath() string {
	return filepath.Join(c.Paths.OutDir, "insights_aggregate.csv")
}

// TaskExamplesPath returns the per-task examples CSV path.
func (c *Config) TaskExamplesPath() string {
	return filepath.Join(c.Paths.OutDir, "task_examples.csv")
}

// ReportPath returns the rendered developer report path.
func (c *Config) ReportPath() string {
	return filepath.Join(c.Paths.OutDir, "dev_report.md")
}

// StateDBPath returns the sqlite run ledger path.
func (c *Config) StateDBPath() string {
	return filepath.Join(c.Paths.OutDir, "reviewforge.db")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath resolves ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
