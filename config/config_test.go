package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "unknown marketplace",
			mutate: func(cfg *Config) {
				cfg.Marketplace = "MARS"
			},
			wantErr: "marketplace",
		},
		{
			name: "unknown fetch mode",
			mutate: func(cfg *Config) {
				cfg.FetchMode = "carrier-pigeon"
			},
			wantErr: "fetch mode",
		},
		{
			name: "empty user agent",
			mutate: func(cfg *Config) {
				cfg.UserAgent = ""
			},
			wantErr: "user agent",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "no stars",
			mutate: func(cfg *Config) {
				cfg.Stars = nil
			},
			wantErr: "star",
		},
		{
			name: "star out of range",
			mutate: func(cfg *Config) {
				cfg.Stars = []int{3, 6}
			},
			wantErr: "star value 6",
		},
		{
			name: "zero pages per star",
			mutate: func(cfg *Config) {
				cfg.PagesPerStar = 0
			},
			wantErr: "pages per star",
		},
		{
			name: "unknown speed mode",
			mutate: func(cfg *Config) {
				cfg.SpeedMode = "ludicrous"
			},
			wantErr: "speed mode",
		},
		{
			name: "zero error budget",
			mutate: func(cfg *Config) {
				cfg.MaxConsecutiveErrors = 0
			},
			wantErr: "consecutive errors",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COLLECTOR_MARKETPLACE", "UK")
	t.Setenv("COLLECTOR_STARS", "1,5")
	t.Setenv("COLLECTOR_PAGES_PER_STAR", "3")
	t.Setenv("COLLECTOR_SPEED_MODE", "fast")

	cfg := DefaultConfig()
	if err := cfg.LoadEnv(); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.Marketplace != "UK" {
		t.Fatalf("marketplace = %q", cfg.Marketplace)
	}
	if len(cfg.Stars) != 2 || cfg.Stars[0] != 1 || cfg.Stars[1] != 5 {
		t.Fatalf("stars = %v", cfg.Stars)
	}
	if cfg.PagesPerStar != 3 {
		t.Fatalf("pages per star = %d", cfg.PagesPerStar)
	}
	if cfg.SpeedMode != "fast" {
		t.Fatalf("speed mode = %q", cfg.SpeedMode)
	}
}

func TestCollectionConfigCopiesStars(t *testing.T) {
	cfg := DefaultConfig()
	plan := cfg.CollectionConfig()
	plan.Stars[0] = 9
	if cfg.Stars[0] == 9 {
		t.Fatalf("collection config shares the stars slice")
	}
}
