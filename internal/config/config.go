// Package config loads the application configuration from a TOML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Drive     DriveConfig     `toml:"drive"`
	Extractor ExtractorConfig `toml:"extractor"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Server    ServerConfig    `toml:"server"`
}

// DataConfig locates local state.
type DataConfig struct {
	// Dir is the data directory. Empty selects ~/.vendoriq/data.
	Dir string `toml:"dir"`
}

// DriveConfig holds the Google Drive OAuth application settings. The client
// secret can also come from VENDORIQ_DRIVE_CLIENT_SECRET.
type DriveConfig struct {
	ClientID       string  `toml:"client_id"`
	ClientSecret   string  `toml:"client_secret"`
	RootFolderName string  `toml:"root_folder_name"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
	Burst          int     `toml:"burst"`
}

// ExtractorConfig selects and tunes the extraction backend.
type ExtractorConfig struct {
	// Provider is "gemini" or "ollama".
	Provider string `toml:"provider"`

	// APIKey is the provider API key. Can also come from
	// VENDORIQ_EXTRACTOR_API_KEY.
	APIKey string `toml:"api_key"`

	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// APIKey is the provider API key. Can also come from
	// VENDORIQ_EMBEDDING_API_KEY.
	APIKey string `toml:"api_key"`

	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`
}

// PipelineConfig tunes the processing pipeline.
type PipelineConfig struct {
	// MaxRetries is the per-phase attempt ceiling (default 3).
	MaxRetries int `toml:"max_retries"`

	// VendorConcurrency bounds parallel vendor processing (default 4).
	VendorConcurrency int `toml:"vendor_concurrency"`
}

// ServerConfig tunes the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `toml:"addr"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		Extractor: ExtractorConfig{Provider: "gemini"},
		Embedding: EmbeddingConfig{Provider: "openai"},
		Pipeline:  PipelineConfig{MaxRetries: 3, VendorConcurrency: 4},
		Server:    ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns the default config file location,
// ~/.vendoriq/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".vendoriq", "config.toml"), nil
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides. An empty path selects
// the default location.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is fine: defaults plus environment.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Secrets are the
// main use: they stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("VENDORIQ_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("VENDORIQ_DRIVE_CLIENT_ID"); v != "" {
		c.Drive.ClientID = v
	}
	if v := os.Getenv("VENDORIQ_DRIVE_CLIENT_SECRET"); v != "" {
		c.Drive.ClientSecret = v
	}
	if v := os.Getenv("VENDORIQ_EXTRACTOR_API_KEY"); v != "" {
		c.Extractor.APIKey = v
	}
	if v := os.Getenv("VENDORIQ_EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("VENDORIQ_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VENDORIQ_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.MaxRetries = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Extractor.Provider == "" {
		c.Extractor.Provider = "gemini"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Pipeline.MaxRetries <= 0 {
		c.Pipeline.MaxRetries = 3
	}
	if c.Pipeline.VendorConcurrency <= 0 {
		c.Pipeline.VendorConcurrency = 4
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}
