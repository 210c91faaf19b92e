// Package common provides shared utilities for Quantfeed
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Quantfeed
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Refresh     RefreshConfig `toml:"refresh"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	Cache AreaConfig `toml:"cache"` // Last-good series payloads (BadgerHold)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations, one block per provider.
type ClientsConfig struct {
	AlphaVantage ClientConfig `toml:"alphavantage"`
	CoinGecko    ClientConfig `toml:"coingecko"`
	CoinCap      ClientConfig `toml:"coincap"`
	EIA          ClientConfig `toml:"eia"`
	FRED         ClientConfig `toml:"fred"`
	Polygon      ClientConfig `toml:"polygon"`
}

// ClientConfig holds configuration for a single provider client.
type ClientConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RefreshConfig holds the refresh scheduler configuration.
type RefreshConfig struct {
	QuoteInterval     string   `toml:"quote_interval"`     // live quote symbols
	WatchlistInterval string   `toml:"watchlist_interval"` // slower watch-list refresh
	Jitter            string   `toml:"jitter"`             // max random delay before each cycle
	Symbols           []string `toml:"symbols"`
	Watchlist         []string `toml:"watchlist"`
}

// GetQuoteInterval parses and returns the quote refresh interval.
func (c *RefreshConfig) GetQuoteInterval() time.Duration {
	d, err := time.ParseDuration(c.QuoteInterval)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetWatchlistInterval parses and returns the watch-list refresh interval.
func (c *RefreshConfig) GetWatchlistInterval() time.Duration {
	d, err := time.ParseDuration(c.WatchlistInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetJitter parses and returns the maximum scheduling jitter.
func (c *RefreshConfig) GetJitter() time.Duration {
	d, err := time.ParseDuration(c.Jitter)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Cache: AreaConfig{Path: "data/cache"},
		},
		Clients: ClientsConfig{
			AlphaVantage: ClientConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 5,
				Timeout:   "30s",
			},
			CoinGecko: ClientConfig{
				BaseURL:   "https://api.coingecko.com",
				RateLimit: 10,
				Timeout:   "30s",
			},
			CoinCap: ClientConfig{
				BaseURL:   "https://api.coincap.io",
				RateLimit: 10,
				Timeout:   "30s",
			},
			EIA: ClientConfig{
				BaseURL:   "https://api.eia.gov",
				RateLimit: 5,
				Timeout:   "30s",
			},
			FRED: ClientConfig{
				BaseURL:   "https://api.stlouisfed.org",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Polygon: ClientConfig{
				BaseURL:   "https://api.polygon.io",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Refresh: RefreshConfig{
			QuoteInterval:     "60s",
			WatchlistInterval: "5m",
			Jitter:            "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("QUANTFEED_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("QUANTFEED_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("QUANTFEED_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("QUANTFEED_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("QUANTFEED_DATA_PATH"); path != "" {
		config.Storage.Cache.Path = path
	}

	// API key overrides
	if v := os.Getenv("QUANTFEED_ALPHAVANTAGE_API_KEY"); v != "" {
		config.Clients.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("QUANTFEED_EIA_API_KEY"); v != "" {
		config.Clients.EIA.APIKey = v
	}
	if v := os.Getenv("QUANTFEED_FRED_API_KEY"); v != "" {
		config.Clients.FRED.APIKey = v
	}
	if v := os.Getenv("QUANTFEED_POLYGON_API_KEY"); v != "" {
		config.Clients.Polygon.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
