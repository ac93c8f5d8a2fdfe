package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig wraps every configuration validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Provider source types
const (
	SourceOpenSky     = "opensky"
	SourceFlightRadar = "flightradar"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Station  StationConfig  `toml:"station"`  // Observer location and search area
	Provider ProviderConfig `toml:"provider"` // Live position source settings
	Airports AirportsConfig `toml:"airports"` // Airport city lookup settings
	Tracker  TrackerConfig  `toml:"tracker"`  // Tracking page (deep resolution) settings
	Storage  StorageConfig  `toml:"storage"`  // Data persistence settings
	Metrics  MetricsConfig  `toml:"metrics"`  // Prometheus settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int    `toml:"port"`                    // Primary HTTP port for the server
	Host               string `toml:"host"`                    // Host address to bind to (e.g., 0.0.0.0 for all interfaces)
	ReadTimeoutSecs    int    `toml:"read_timeout_seconds"`    // Maximum duration for reading the entire request
	WriteTimeoutSecs   int    `toml:"write_timeout_seconds"`   // Maximum duration for writing the response
	IdleTimeoutSecs    int    `toml:"idle_timeout_seconds"`    // Maximum keep-alive idle time
	RequestTimeoutSecs int    `toml:"request_timeout_seconds"` // Per-request handler budget
	AdditionalPorts    []int  `toml:"additional_ports"`        // Additional HTTP ports to listen on
	StaticFilesDir     string `toml:"static_files_dir"`        // Directory holding the front end (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn" or "error"
	Format string `toml:"format"` // "json" or "console"
}

// StationConfig describes where the observer is
type StationConfig struct {
	Latitude       float64  `toml:"latitude"`        // Observer latitude (env MY_LAT)
	Longitude      float64  `toml:"longitude"`       // Observer longitude (env MY_LON)
	RadiusDeg      float64  `toml:"radius_deg"`      // Half-size of the search box in degrees (env AREA_RADIUS_DEG)
	HomeSubstrings []string `toml:"home_substrings"` // Substrings identifying the home airport in destinations
}

// ProviderConfig selects and configures the live position provider
type ProviderConfig struct {
	// Allowed values:
	// - "opensky": OpenSky REST state vectors (m/s, meters, category codes)
	// - "flightradar": FlightRadar24 zone feed (knots, feet, airport codes)
	SourceType  string `toml:"source_type"` // env PROVIDER
	TimeoutSecs int    `toml:"timeout_seconds"`

	OpenSkyBaseURL         string `toml:"opensky_base_url"`
	OpenSkyTokenURL        string `toml:"opensky_token_url"`
	OpenSkyClientID        string `toml:"opensky_client_id"`        // env OPENSKY_CLIENT_ID
	OpenSkyClientSecret    string `toml:"opensky_client_secret"`    // env OPENSKY_CLIENT_SECRET
	OpenSkyCredentialsPath string `toml:"opensky_credentials_path"` // Optional JSON file with access_token or client_id/client_secret

	FlightRadarFeedURL   string `toml:"flightradar_feed_url"`
	FlightRadarUserAgent string `toml:"flightradar_user_agent"`
}

// AirportsConfig configures IATA code to city resolution
type AirportsConfig struct {
	LookupURL   string `toml:"lookup_url"`
	UserAgent   string `toml:"user_agent"`
	TimeoutSecs int    `toml:"timeout_seconds"`
}

// TrackerConfig configures deep resolution against a flight tracking page
type TrackerConfig struct {
	PageURL     string `toml:"page_url"`   // Page URL template, %s is replaced by the callsign
	UserAgent   string `toml:"user_agent"` // Browser User-Agent sent with the request
	Extraction  string `toml:"extraction"` // "regex" (default) or "scanner"
	TimeoutSecs int    `toml:"timeout_seconds"`
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	SQLitePath      string `toml:"sqlite_path"`      // Database file for scores, users and destinations
	LeaderboardSize int    `toml:"leaderboard_size"` // Number of high scores kept
}

// MetricsConfig contains prometheus configuration
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

// Timeout returns the provider call budget
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// Timeout returns the airport lookup call budget
func (a AirportsConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// Timeout returns the tracking page call budget
func (t TrackerConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSecs) * time.Second
}

// Load loads the configuration from the specified TOML file and applies
// environment overrides
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference.
// A .env file in the working directory is loaded first; it never overrides variables already set.
func LoadWithFallback(preferredPath string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	// List of paths to check in order of preference
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

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with the supported environment variables
func (c *Config) ApplyEnv() error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"MY_LAT", &c.Station.Latitude},
		{"MY_LON", &c.Station.Longitude},
		{"AREA_RADIUS_DEG", &c.Station.RadiusDeg},
	}
	for _, f := range floats {
		v := strings.TrimSpace(os.Getenv(f.key))
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, f.key, v)
		}
		*f.dst = parsed
	}

	if v := os.Getenv("OPENSKY_CLIENT_ID"); v != "" {
		c.Provider.OpenSkyClientID = v
	}
	if v := os.Getenv("OPENSKY_CLIENT_SECRET"); v != "" {
		c.Provider.OpenSkyClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("PROVIDER")); v != "" {
		c.Provider.SourceType = v
	}
	return nil
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port: %d", ErrInvalidConfig, c.Server.Port)
	}
	portsSeen := map[int]bool{c.Server.Port: true}
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("%w: invalid additional server port: %d", ErrInvalidConfig, p)
		}
		if portsSeen[p] {
			return fmt.Errorf("%w: duplicate port configured: %d (primary or additional)", ErrInvalidConfig, p)
		}
		portsSeen[p] = true
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.RequestTimeoutSecs <= 0 {
		c.Server.RequestTimeoutSecs = 30
	}
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Validate logging config
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid logging level: %s", ErrInvalidConfig, c.Logging.Level)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: invalid logging format: %s (must be 'console' or 'json')", ErrInvalidConfig, c.Logging.Format)
	}

	if err := c.ValidateStation(); err != nil {
		return err
	}
	if err := c.ValidateProvider(); err != nil {
		return err
	}

	// Validate tracker config
	c.Tracker.Extraction = strings.ToLower(strings.TrimSpace(c.Tracker.Extraction))
	if c.Tracker.Extraction == "" {
		c.Tracker.Extraction = "regex"
	}
	if c.Tracker.Extraction != "regex" && c.Tracker.Extraction != "scanner" {
		return fmt.Errorf("%w: invalid tracker extraction: %s (must be 'regex' or 'scanner')", ErrInvalidConfig, c.Tracker.Extraction)
	}
	if c.Tracker.PageURL != "" && strings.Count(c.Tracker.PageURL, "%s") != 1 {
		return fmt.Errorf("%w: tracker page_url must contain exactly one %%s placeholder", ErrInvalidConfig)
	}
	if c.Tracker.TimeoutSecs <= 0 {
		c.Tracker.TimeoutSecs = 10
	}
	if c.Airports.TimeoutSecs <= 0 {
		c.Airports.TimeoutSecs = 10
	}

	// Validate storage config
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/skyguess.db"
	}
	if c.Storage.LeaderboardSize < 0 {
		return fmt.Errorf("%w: leaderboard_size must not be negative", ErrInvalidConfig)
	}
	if c.Storage.LeaderboardSize == 0 {
		c.Storage.LeaderboardSize = 10
	}

	// Validate metrics config
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics path must start with '/': %s", ErrInvalidConfig, c.Metrics.Path)
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "skyguess"
	}

	return nil
}

// ValidateStation checks the observer location and search radius
func (c *Config) ValidateStation() error {
	if c.Station.Latitude < -90 || c.Station.Latitude > 90 {
		return fmt.Errorf("%w: station latitude out of range: %f", ErrInvalidConfig, c.Station.Latitude)
	}
	if c.Station.Longitude < -180 || c.Station.Longitude > 180 {
		return fmt.Errorf("%w: station longitude out of range: %f", ErrInvalidConfig, c.Station.Longitude)
	}
	if c.Station.RadiusDeg == 0 {
		c.Station.RadiusDeg = 1.0
	}
	if c.Station.RadiusDeg < 0 || c.Station.RadiusDeg > 10 {
		return fmt.Errorf("%w: radius_deg must be between 0 and 10: %f", ErrInvalidConfig, c.Station.RadiusDeg)
	}
	if c.Station.HomeSubstrings == nil {
		c.Station.HomeSubstrings = []string{"Vantaa", "Helsinki"}
	}
	return nil
}

// ValidateProvider checks the provider selection and its credentials
func (c *Config) ValidateProvider() error {
	c.Provider.SourceType = strings.ToLower(strings.TrimSpace(c.Provider.SourceType))
	if c.Provider.SourceType == "" {
		c.Provider.SourceType = SourceOpenSky
	}
	if c.Provider.SourceType != SourceOpenSky && c.Provider.SourceType != SourceFlightRadar {
		return fmt.Errorf("%w: invalid provider source type: %s (must be '%s' or '%s')",
			ErrInvalidConfig, c.Provider.SourceType, SourceOpenSky, SourceFlightRadar)
	}
	if (c.Provider.OpenSkyClientID == "") != (c.Provider.OpenSkyClientSecret == "") {
		return fmt.Errorf("%w: opensky_client_id and opensky_client_secret must be set together", ErrInvalidConfig)
	}
	if c.Provider.TimeoutSecs <= 0 {
		c.Provider.TimeoutSecs = 10
	}
	return nil
}
