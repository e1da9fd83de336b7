package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where calc looks for its config when --config is not given.
const DefaultConfigPath = ".calcnerd/config.yaml"

// Config holds all calcnerd configuration.
type Config struct {
	// Calculation service
	Service ServiceConfig `yaml:"service"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Calculation history database
	History HistoryConfig `yaml:"history"`

	// Batch runner
	Batch BatchConfig `yaml:"batch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig configures the remote calculation service.
type ServiceConfig struct {
	BaseURL  string `yaml:"base_url"`
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"` // empty or "0" = no client timeout
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// HistoryConfig configures the calculation history store.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	Limit        int    `yaml:"limit"`       // default rows listed by `calc history`
	MaxEntries   int    `yaml:"max_entries"` // rows kept after each insert, 0 = unbounded
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:  "http://localhost:5000",
			Endpoint: "/api/calculate",
			Timeout:  "",
		},
		UI: DefaultUIConfig(),
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: ".calcnerd/history.db",
			Limit:        20,
			MaxEntries:   1000,
		},
		Batch: BatchConfig{
			Concurrency:       4,
			RequestsPerSecond: 5,
			Burst:             1,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			File:      ".calcnerd/logs/calc.log",
			DebugMode: false,
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if u := os.Getenv("CALCNERD_SERVICE_URL"); u != "" {
		c.Service.BaseURL = u
	}
	if d := os.Getenv("CALCNERD_TIMEOUT"); d != "" {
		c.Service.Timeout = d
	}
	if path := os.Getenv("CALCNERD_DB"); path != "" {
		c.History.DatabasePath = path
	}
	switch strings.ToLower(os.Getenv("CALCNERD_DEBUG")) {
	case "1", "true", "yes":
		c.Logging.DebugMode = true
	case "0", "false", "no":
		c.Logging.DebugMode = false
	}
}

// ServiceURL returns the absolute calculation endpoint.
func (c *Config) ServiceURL() string {
	endpoint := c.Service.Endpoint
	if endpoint == "" {
		endpoint = "/api/calculate"
	}
	return strings.TrimRight(c.Service.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// GetServiceTimeout returns the HTTP client timeout. Zero means none.
func (c *Config) GetServiceTimeout() time.Duration {
	if c.Service.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Service.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid service base_url %q: must be an absolute http(s) URL", c.Service.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid service base_url %q: unsupported scheme %q", c.Service.BaseURL, u.Scheme)
	}
	if c.Service.Timeout != "" {
		if _, err := time.ParseDuration(c.Service.Timeout); err != nil {
			return fmt.Errorf("invalid service timeout %q: %w", c.Service.Timeout, err)
		}
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if c.Batch.RequestsPerSecond < 0 {
		return fmt.Errorf("batch requests_per_second must not be negative, got %v", c.Batch.RequestsPerSecond)
	}
	if c.UI.GraphWidth < 10 || c.UI.GraphHeight < 4 {
		return fmt.Errorf("graph size %dx%d too small (minimum 10x4)", c.UI.GraphWidth, c.UI.GraphHeight)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history max_entries must not be negative, got %d", c.History.MaxEntries)
	}
	if c.History.Enabled && c.History.DatabasePath == "" {
		return fmt.Errorf("history enabled but database_path is empty")
	}
	return nil
}
