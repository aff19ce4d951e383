// Package config holds collection engine configuration.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/reviewpulse/go-collect-reviews/models"
)

// Fetch modes for the listing page fetcher.
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds engine configuration.
type Config struct {
	Marketplace  string        `env:"COLLECTOR_MARKETPLACE"`
	FetchMode    string        `env:"COLLECTOR_FETCH_MODE"`
	UserAgent    string        `env:"COLLECTOR_USER_AGENT"`
	Timeout      time.Duration `env:"COLLECTOR_TIMEOUT"`
	SettleDelay  time.Duration `env:"COLLECTOR_SETTLE_DELAY"`
	Stars        []int         `env:"COLLECTOR_STARS" envSeparator:","`
	PagesPerStar int           `env:"COLLECTOR_PAGES_PER_STAR"`
	SpeedMode    string        `env:"COLLECTOR_SPEED_MODE"`

	// MaxConsecutiveErrors bounds retryable failures before a segment aborts.
	MaxConsecutiveErrors int `env:"COLLECTOR_MAX_ERRORS"`
	// MaxEmptyPages is the consecutive zero-new-record pages treated as end
	// of segment data.
	MaxEmptyPages int `env:"COLLECTOR_MAX_EMPTY_PAGES"`
	// DedupeMaxSize caps the session seen-id set.
	DedupeMaxSize int `env:"COLLECTOR_DEDUPE_MAX_SIZE"`

	OutputFile   string `env:"COLLECTOR_OUTPUT"`
	OutputFormat string `env:"COLLECTOR_FORMAT"` // csv, json, or dual
	MetricsAddr  string `env:"COLLECTOR_METRICS_ADDR"`
	Verbose      bool   `env:"COLLECTOR_VERBOSE"`
}

// DefaultConfig returns conservative defaults for a stable session.
func DefaultConfig() *Config {
	return &Config{
		Marketplace:          string(models.MarketplaceUS),
		FetchMode:            FetchModeBrowser,
		UserAgent:            "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Timeout:              25 * time.Second,
		SettleDelay:          800 * time.Millisecond,
		Stars:                []int{1, 2, 3, 4, 5},
		PagesPerStar:         10,
		SpeedMode:            string(models.SpeedStable),
		MaxConsecutiveErrors: 3,
		MaxEmptyPages:        2,
		DedupeMaxSize:        100_000,
		OutputFile:           "output/reviews.csv",
		OutputFormat:         "csv",
		MetricsAddr:          "",
		Verbose:              false,
	}
}

// LoadEnv applies COLLECTOR_* environment overrides.
func (c *Config) LoadEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if _, ok := models.ParseMarketplace(c.Marketplace); !ok {
		return fmt.Errorf("unknown marketplace %q", c.Marketplace)
	}
	if c.FetchMode != FetchModeHTTP && c.FetchMode != FetchModeBrowser {
		return fmt.Errorf("fetch mode must be %q or %q", FetchModeHTTP, FetchModeBrowser)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if len(c.Stars) == 0 {
		return fmt.Errorf("at least one star value is required")
	}
	for _, star := range c.Stars {
		if star < 1 || star > 5 {
			return fmt.Errorf("star value %d out of range [1,5]", star)
		}
	}
	if c.PagesPerStar <= 0 {
		return fmt.Errorf("pages per star must be positive")
	}
	if !models.SpeedMode(c.SpeedMode).Valid() {
		return fmt.Errorf("speed mode must be %q or %q", models.SpeedFast, models.SpeedStable)
	}
	if c.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("max consecutive errors must be positive")
	}
	if c.MaxEmptyPages <= 0 {
		return fmt.Errorf("max empty pages must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	return nil
}

// MarketplaceValue returns the configured marketplace.
func (c *Config) MarketplaceValue() models.Marketplace {
	m, _ := models.ParseMarketplace(c.Marketplace)
	return m
}

// CollectionConfig builds the per-session plan from the config.
func (c *Config) CollectionConfig() models.CollectionConfig {
	stars := make([]int, len(c.Stars))
	copy(stars, c.Stars)
	return models.CollectionConfig{
		Stars:        stars,
		PagesPerStar: c.PagesPerStar,
		SpeedMode:    models.SpeedMode(c.SpeedMode),
	}
}
