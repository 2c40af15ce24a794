package config

import (
	"errors"
	"fmt"

	"reviewforge/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSteam(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSteam() error {
	if c.Steam.AppID < 0 {
		return errors.New("steam.app_id must not be negative")
	}
	if c.Steam.MaxReviews <= 0 {
		return errors.New("steam.max_reviews must be positive")
	}
	if c.Steam.PageSize < 1 || c.Steam.PageSize > 100 {
		return errors.New("steam.page_size must be between 1 and 100")
	}
	switch c.Steam.Filter {
	case "recent", "updated":
	default:
		return fmt.Errorf("steam.filter must be \"recent\" or \"updated\", got %q", c.Steam.Filter)
	}
	if c.Steam.OffTopicFilter != 0 && c.Steam.OffTopicFilter != 1 {
		return errors.New("steam.off_topic_filter must be 0 or 1")
	}
	if !language.IsKnown(c.Steam.Language) {
		return fmt.Errorf("steam.language %q is not a recognized storefront language", c.Steam.Language)
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.Binary == "" {
		return errors.New("worker.binary must be set")
	}
	if c.Worker.Model == "" {
		return errors.New("worker.model must be set")
	}
	if c.Worker.TimeoutSeconds <= 0 {
		return errors.New("worker.timeout_seconds must be positive")
	}
	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateExtract() error {
	if c.Extract.MinConfidence < 0 || c.Extract.MinConfidence > 1 {
		return errors.New("extract.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
