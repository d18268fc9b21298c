// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/job-scraper/internal/schemas"
	"github.com/jonathan/job-scraper/internal/types"
)

// Browser engines accepted by the engine setting.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
	EngineStatic   = "static"
)

// GeocodeConfig configures the location -> country lookup service.
type GeocodeConfig struct {
	URL            string  `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	APIKey         string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIHost        string  `json:"api_host,omitempty" yaml:"api_host,omitempty"`
	RequestsPerSec float64 `json:"requests_per_sec,omitempty" yaml:"requests_per_sec,omitempty" validate:"gte=0"`
}

// Config represents the crawl configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Searches
	Presets  []string            `json:"presets,omitempty" yaml:"presets,omitempty" validate:"dive,oneof=il dsus uk all"` // Predefined searches to run
	Searches []types.SearchQuery `json:"searches,omitempty" yaml:"searches,omitempty" validate:"dive"`                     // Additional search URLs

	// Limits
	LimitSearchPages int `json:"limit_search_pages,omitempty" yaml:"limit_search_pages,omitempty" validate:"omitempty,min=1,max=30"`  // Result pages per search
	LimitJobPosts    int `json:"limit_job_posts,omitempty" yaml:"limit_job_posts,omitempty" validate:"omitempty,min=1,max=1000"`    // Postings per run

	// Output
	OutDir  string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	LogFile string `json:"log_file,omitempty" yaml:"log_file,omitempty"`

	// Browser
	Engine      string `json:"engine,omitempty" yaml:"engine,omitempty" validate:"omitempty,oneof=chromedp rod static"`
	BrowserPath string `json:"browser_path,omitempty" yaml:"browser_path,omitempty"`
	Headless    *bool  `json:"headless,omitempty" yaml:"headless,omitempty"`

	// Backends
	DatabaseURL string        `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string        `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`       // Geocode cache
	Geocode     GeocodeConfig `json:"geocode,omitempty" yaml:"geocode,omitempty"`

	// Behavior
	Verbose  bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	JSONLogs bool   `json:"json_logs,omitempty" yaml:"json_logs,omitempty"` // Log as JSON lines
	Dedupe   bool   `json:"dedupe,omitempty" yaml:"dedupe,omitempty"`       // Drop repeated links across searches
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`   // Cron spec; empty runs once
}

// Default returns the built-in defaults.
func Default() Config {
	headless := true
	return Config{
		OutDir:   ".",
		Engine:   EngineChromedp,
		Headless: &headless,
		Geocode:  GeocodeConfig{RequestsPerSec: 1},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// The document is checked against the config JSON Schema before decoding.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var (
		doc map[string]any
		cfg Config
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .json, .yaml or .yml)", ext)
	}

	if doc == nil {
		doc = map[string]any{}
	}
	if err := schemas.ValidateConfig(doc); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Engine != EngineStatic && c.BrowserPath != "" {
		if _, err := os.Stat(c.BrowserPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: browser binary not found: %s (install Chrome/Chromium or pass --browser-path)", c.BrowserPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// Slices: use default if empty
	if len(result.Presets) == 0 {
		result.Presets = defaults.Presets
	}
	if len(result.Searches) == 0 {
		result.Searches = defaults.Searches
	}

	// String fields: use default if empty
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.Engine == "" {
		result.Engine = defaults.Engine
	}
	if result.BrowserPath == "" {
		result.BrowserPath = defaults.BrowserPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.Schedule == "" {
		result.Schedule = defaults.Schedule
	}
	if result.Geocode.URL == "" {
		result.Geocode.URL = defaults.Geocode.URL
	}
	if result.Geocode.APIKey == "" {
		result.Geocode.APIKey = defaults.Geocode.APIKey
	}
	if result.Geocode.APIHost == "" {
		result.Geocode.APIHost = defaults.Geocode.APIHost
	}

	// Numeric fields: use default if zero
	if result.LimitSearchPages == 0 {
		result.LimitSearchPages = defaults.LimitSearchPages
	}
	if result.LimitJobPosts == 0 {
		result.LimitJobPosts = defaults.LimitJobPosts
	}
	if result.Geocode.RequestsPerSec == 0 {
		result.Geocode.RequestsPerSec = defaults.Geocode.RequestsPerSec
	}

	// Pointer bools can tell unset from false
	if result.Headless == nil {
		result.Headless = defaults.Headless
	}

	// Plain bools: cannot distinguish unset from false, so either side enables them
	result.Verbose = result.Verbose || defaults.Verbose
	result.JSONLogs = result.JSONLogs || defaults.JSONLogs
	result.Dedupe = result.Dedupe || defaults.Dedupe

	return result
}

// HeadlessOrDefault reports the headless setting, true when unset.
func (c *Config) HeadlessOrDefault() bool {
	return c.Headless == nil || *c.Headless
}
