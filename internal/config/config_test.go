package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
port = 8080
static_files_dir = "public"

[logging]
level = "debug"
format = "json"

[station]
latitude = 60.3172
longitude = 24.9633
radius_deg = 0.5
home_substrings = ["Vantaa"]

[provider]
source_type = "FlightRadar"
timeout_seconds = 5

[tracker]
extraction = "scanner"

[storage]
sqlite_path = "scores.db"
leaderboard_size = 5
`

// clearEnv registers cleanup for the override variables and unsets them
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MY_LAT", "MY_LON", "AREA_RADIUS_DEG", "OPENSKY_CLIENT_ID", "OPENSKY_CLIENT_SECRET", "PROVIDER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "public", cfg.Server.StaticFilesDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 60.3172, cfg.Station.Latitude)
	assert.Equal(t, 0.5, cfg.Station.RadiusDeg)
	assert.Equal(t, []string{"Vantaa"}, cfg.Station.HomeSubstrings)
	assert.Equal(t, SourceFlightRadar, cfg.Provider.SourceType)
	assert.Equal(t, 5, cfg.Provider.TimeoutSecs)
	assert.Equal(t, "scanner", cfg.Tracker.Extraction)
	assert.Equal(t, 10, cfg.Tracker.TimeoutSecs)
	assert.Equal(t, 5, cfg.Storage.LeaderboardSize)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestValidateDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "www", cfg.Server.StaticFilesDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 1.0, cfg.Station.RadiusDeg)
	assert.Equal(t, []string{"Vantaa", "Helsinki"}, cfg.Station.HomeSubstrings)
	assert.Equal(t, SourceOpenSky, cfg.Provider.SourceType)
	assert.Equal(t, "regex", cfg.Tracker.Extraction)
	assert.Equal(t, 10, cfg.Storage.LeaderboardSize)
	assert.Equal(t, "skyguess", cfg.Metrics.Namespace)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_LAT", "51.47")
	t.Setenv("MY_LON", "-0.4543")
	t.Setenv("AREA_RADIUS_DEG", "2")
	t.Setenv("OPENSKY_CLIENT_ID", "id")
	t.Setenv("OPENSKY_CLIENT_SECRET", "secret")
	t.Setenv("PROVIDER", "opensky")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 51.47, cfg.Station.Latitude)
	assert.Equal(t, -0.4543, cfg.Station.Longitude)
	assert.Equal(t, 2.0, cfg.Station.RadiusDeg)
	assert.Equal(t, "id", cfg.Provider.OpenSkyClientID)
	assert.Equal(t, "secret", cfg.Provider.OpenSkyClientSecret)
	assert.Equal(t, SourceOpenSky, cfg.Provider.SourceType)
}

func TestEnvOverrideNotANumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_LAT", "north")

	_, err := Load(writeConfig(t, sampleConfig))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_LON", "10.5")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MY_LAT=59.65\nMY_LON=17.92\n"), 0o600))
	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "59.65", os.Getenv("MY_LAT"))
	// variables already present win over the file
	assert.Equal(t, "10.5", os.Getenv("MY_LON"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"duplicate port", func(c *Config) { c.Server.Port = 80; c.Server.AdditionalPorts = []int{80} }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad latitude", func(c *Config) { c.Station.Latitude = 91 }},
		{"bad longitude", func(c *Config) { c.Station.Longitude = -181 }},
		{"negative radius", func(c *Config) { c.Station.RadiusDeg = -1 }},
		{"bad provider", func(c *Config) { c.Provider.SourceType = "adsbx" }},
		{"half credentials", func(c *Config) { c.Provider.OpenSkyClientID = "id" }},
		{"bad extraction", func(c *Config) { c.Tracker.Extraction = "xpath" }},
		{"page url without placeholder", func(c *Config) { c.Tracker.PageURL = "https://example.com/flight" }},
		{"negative leaderboard", func(c *Config) { c.Storage.LeaderboardSize = -1 }},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestLoadWithFallbackMissing(t *testing.T) {
	clearEnv(t)
	_, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadWithFallbackPreferred(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithFallback(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
