// ABOUTME: minilok configuration: JSON file, environment overrides, backend factory.
// ABOUTME: Backends are "local" (badger, default), "sqlite" and "postgres".

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/postgres"
	"github.com/harperreed/minilok/internal/storage"
)

// Backend names.
const (
	BackendLocal    = "local"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config stores minilok configuration.
type Config struct {
	// Backend selects the storage backend: "local" (default), "sqlite" or "postgres".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// The local store lives in DataDir/local, SQLite in DataDir/minilok.db.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/minilok.
	DataDir string `json:"data_dir,omitempty"`

	// DatabaseURL is the Postgres connection string for the postgres backend.
	DatabaseURL string `json:"database_url,omitempty"`

	// Listen is the HTTP address for "minilok serve".
	Listen string `json:"listen,omitempty"`

	// ChromeBin is the browser used for PDF export; empty lets rod find one.
	ChromeBin string `json:"chrome_bin,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// CumulativeAsRunning scores cumulative activities against their year-to-date target.
	CumulativeAsRunning bool `json:"cumulative_as_running,omitempty"`
}

// ApplyEnv overrides file settings with MINILOK_* and LOG_FORMAT variables.
func (c *Config) ApplyEnv() {
	overrides := map[string]*string{
		"MINILOK_BACKEND":      &c.Backend,
		"MINILOK_DATA_DIR":     &c.DataDir,
		"MINILOK_DATABASE_URL": &c.DatabaseURL,
		"MINILOK_LISTEN":       &c.Listen,
		"MINILOK_CHROME_BIN":   &c.ChromeBin,
		"MINILOK_LOG_LEVEL":    &c.LogLevel,
		"LOG_FORMAT":           &c.LogFormat,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
	if v, ok := os.LookupEnv("MINILOK_CUMULATIVE_AS_RUNNING"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CumulativeAsRunning = b
		}
	}
}

// GetBackend returns the configured backend, defaulting to "local".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendLocal
	}
	return strings.ToLower(c.Backend)
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetListen returns the HTTP listen address, defaulting to 127.0.0.1:8080.
func (c *Config) GetListen() string {
	if c.Listen == "" {
		return "127.0.0.1:8080"
	}
	return c.Listen
}

// GetLogLevel parses the log level, defaulting to info.
func (c *Config) GetLogLevel() zerolog.Level {
	if c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// HumanLogs reports whether logs should go to a console writer instead of JSON.
func (c *Config) HumanLogs() bool {
	return strings.EqualFold(c.LogFormat, "human") || c.GetLogLevel() <= zerolog.DebugLevel
}

// Evaluator returns the scoring rules selected by the config.
func (c *Config) Evaluator() aggregate.Evaluator {
	return aggregate.Evaluator{CumulativeAsRunning: c.CumulativeAsRunning}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage(ctx context.Context) (storage.Repository, error) {
	return c.OpenBackend(ctx, c.GetBackend())
}

// OpenBackend opens a specific backend with this config's locations.
func (c *Config) OpenBackend(ctx context.Context, backend string) (storage.Repository, error) {
	dataDir := c.GetDataDir()

	switch backend {
	case BackendLocal:
		return storage.OpenLocal(storage.LocalDir(dataDir))
	case BackendSQLite:
		return storage.Open(storage.DBPath(dataDir))
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend needs database_url or MINILOK_DATABASE_URL")
		}
		return postgres.Open(ctx, c.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "minilok", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(GetConfigPath())
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", GetConfigPath(), err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
