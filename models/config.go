// Package models defines data structures for configuration and viewer state.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHeight          = 600.0
	DefaultOverscan        = 2
	DefaultPageMargin      = 10.0
	DefaultPageHeight      = 800.0
	DefaultMinZoom         = 0.5
	DefaultMaxZoom         = 3.0
	DefaultZoomStep        = 0.25
	DefaultControlsTimeout = 2 * time.Second
	DefaultMaxRenders      = 4
	DefaultCacheDir        = "pdfview-cache"
	DefaultCacheTTL        = 24 * time.Hour
	DefaultMediaDir        = "pdfview-media"
	DefaultDatabase        = "pdfview.db"
	DefaultListenAddr      = "127.0.0.1:8501"
	DefaultConfigFile      = "pdfview.yaml"
)

// Config holds runtime configuration for the viewer, engine and media server.
// Values come from an optional YAML file and are overridden by CLI flags.
type Config struct {
	DefaultHeight        float64       `yaml:"default_height"`
	Overscan             int           `yaml:"overscan"`
	PageMargin           float64       `yaml:"page_margin"`
	DefaultPageHeight    float64       `yaml:"default_page_height"`
	MinZoom              float64       `yaml:"min_zoom"`
	MaxZoom              float64       `yaml:"max_zoom"`
	ZoomStep             float64       `yaml:"zoom_step"`
	ControlsTimeout      time.Duration `yaml:"controls_timeout"`
	MaxConcurrentRenders int           `yaml:"max_concurrent_renders"`
	CacheDir             string        `yaml:"cache_dir"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	MediaDir             string        `yaml:"media_dir"`
	Database             string        `yaml:"database"`
	ListenAddr           string        `yaml:"listen_addr"`

	// DownloadAssetsBaseURL is the injected base-URL override of the hosting context.
	DownloadAssetsBaseURL string `yaml:"download_assets_base_url,omitempty"`
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultHeight:        DefaultHeight,
		Overscan:             DefaultOverscan,
		PageMargin:           DefaultPageMargin,
		DefaultPageHeight:    DefaultPageHeight,
		MinZoom:              DefaultMinZoom,
		MaxZoom:              DefaultMaxZoom,
		ZoomStep:             DefaultZoomStep,
		ControlsTimeout:      DefaultControlsTimeout,
		MaxConcurrentRenders: DefaultMaxRenders,
		CacheDir:             DefaultCacheDir,
		CacheTTL:             DefaultCacheTTL,
		MediaDir:             DefaultMediaDir,
		Database:             DefaultDatabase,
		ListenAddr:           DefaultListenAddr,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
// A missing file is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.MinZoom <= 0:
		return fmt.Errorf("min_zoom must be positive, got %v", c.MinZoom)
	case c.MaxZoom < c.MinZoom:
		return fmt.Errorf("max_zoom %v is below min_zoom %v", c.MaxZoom, c.MinZoom)
	case c.ZoomStep <= 0:
		return fmt.Errorf("zoom_step must be positive, got %v", c.ZoomStep)
	case c.Overscan < 0:
		return fmt.Errorf("overscan must not be negative, got %d", c.Overscan)
	case c.PageMargin < 0:
		return fmt.Errorf("page_margin must not be negative, got %v", c.PageMargin)
	case c.DefaultPageHeight <= 0:
		return fmt.Errorf("default_page_height must be positive, got %v", c.DefaultPageHeight)
	case c.ControlsTimeout <= 0:
		return fmt.Errorf("controls_timeout must be positive, got %v", c.ControlsTimeout)
	case c.MaxConcurrentRenders <= 0:
		return fmt.Errorf("max_concurrent_renders must be positive, got %d", c.MaxConcurrentRenders)
	}
	return nil
}
