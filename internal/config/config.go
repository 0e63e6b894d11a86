// Package config loads the synr platform configuration from a YAML file
// with environment variable overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the synr platform.
type Config struct {
	Production bool         `yaml:"production"`
	Storage    Storage      `yaml:"storage"`
	Server     Server       `yaml:"server"`
	AI         AI           `yaml:"ai"`
	Feed       Feed         `yaml:"feed"`
	Gather     GatherConfig `yaml:"gather"`
	Logging    Logging      `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AI holds credentials and tuning for the completion backend.
type AI struct {
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Feed configures the realtime candle push source.
type Feed struct {
	StreamURL string   `yaml:"stream_url"`
	Symbols   []string `yaml:"symbols"`
	Window    int      `yaml:"window"` // candles retained per symbol
}

// GatherConfig controls the candle ingestion job.
type GatherConfig struct {
	ChartURL        string   `yaml:"chart_url"`
	Symbols         []string `yaml:"symbols"`
	Interval        string   `yaml:"interval"`
	LookbackHours   int      `yaml:"lookback_hours"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	LoopSeconds     int      `yaml:"loop_seconds"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	// Name used by the original dashboard deployment (highest priority).
	if v := os.Getenv("GOOGLE_GENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}

	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}

	if v := os.Getenv("SYNR_STREAM_URL"); v != "" {
		cfg.Feed.StreamURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Production = v == "production"
	}
}
