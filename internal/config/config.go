package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server  ServerConfig  `toml:"server"`  // HTTP server settings
	Logging LoggingConfig `toml:"logging"` // Application logging settings
	Sources SourcesConfig `toml:"sources"` // Upstream data source settings
	Cache   CacheConfig   `toml:"cache"`   // Briefing cache settings
	Refresh RefreshConfig `toml:"refresh"` // WebSocket auto-refresh settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve static files from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// SourcesConfig contains upstream data source configuration.
// Each briefing issues independent requests to these three services.
type SourcesConfig struct {
	WeatherBaseURL        string `toml:"weather_api_base_url"`    // Base URL of the METAR/TAF raw-text API (aviationweather.gov style)
	DATISBaseURL          string `toml:"datis_api_base_url"`      // Base URL of the DATIS JSON relay (datis.clowd.io style)
	StatusBaseURL         string `toml:"status_api_base_url"`     // Base URL of the FAA airport status API
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"` // Per-request HTTP timeout in seconds
	FetchDATIS            bool   `toml:"fetch_datis"`             // Include DATIS in briefings
	FetchStatus           bool   `toml:"fetch_status"`            // Include airport status in briefings
}

// CacheConfig contains briefing cache configuration.
// Upstream data changes slowly relative to request rate, so repeated
// submissions within the TTL are served from memory.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"` // How long a cached briefing stays valid
	MaxEntries int `toml:"max_entries"` // Maximum number of cached briefings kept in memory
}

// RefreshConfig contains WebSocket auto-refresh configuration
type RefreshConfig struct {
	DefaultIntervalSecs int `toml:"default_interval_seconds"` // Refresh interval used when the subscriber does not specify one
	MinIntervalSecs     int `toml:"min_interval_seconds"`     // Lower bound on subscriber-requested refresh intervals
}

// DefaultConfig returns a configuration populated with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			Host:               "127.0.0.1",
			CORSAllowedOrigins: []string{"*"},
			ReadTimeoutSecs:    15,
			WriteTimeoutSecs:   15,
			IdleTimeoutSecs:    60,
			StaticFilesDir:     "www",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Sources: SourcesConfig{
			WeatherBaseURL:        "https://aviationweather.gov/api/data",
			DATISBaseURL:          "https://datis.clowd.io/api",
			StatusBaseURL:         "https://external-api.faa.gov/asws/api/airport/status",
			RequestTimeoutSeconds: 10,
			FetchDATIS:            true,
			FetchStatus:           true,
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
			MaxEntries: 128,
		},
		Refresh: RefreshConfig{
			DefaultIntervalSecs: 60,
			MinIntervalSecs:     15,
		},
	}
}

// Load loads the configuration from the specified TOML file
func Load(path string) (*Config, error) {
	// Start from defaults so omitted keys keep working values
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	if c.Sources.WeatherBaseURL == "" {
		return fmt.Errorf("weather_api_base_url cannot be empty")
	}
	if c.Sources.FetchDATIS && c.Sources.DATISBaseURL == "" {
		return fmt.Errorf("datis_api_base_url cannot be empty when fetch_datis is enabled")
	}
	if c.Sources.FetchStatus && c.Sources.StatusBaseURL == "" {
		return fmt.Errorf("status_api_base_url cannot be empty when fetch_status is enabled")
	}
	if c.Sources.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be greater than 0")
	}

	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl_seconds must be greater than 0")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max_entries must be greater than 0")
	}

	if c.Refresh.MinIntervalSecs < 1 {
		return fmt.Errorf("refresh min_interval_seconds must be at least 1")
	}
	if c.Refresh.DefaultIntervalSecs < c.Refresh.MinIntervalSecs {
		return fmt.Errorf("refresh default_interval_seconds must be >= min_interval_seconds")
	}

	return nil
}
