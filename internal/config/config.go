package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Storage backend and paths
	Storage StorageConfig `json:"storage" mapstructure:"storage" yaml:"storage"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log" yaml:"log"`

	// Reports and formatting
	Report ReportConfig `json:"report" mapstructure:"report" yaml:"report"`

	// Leg form drafts
	Draft DraftConfig `json:"draft" mapstructure:"draft" yaml:"draft"`

	// Reverse geocoding
	Geocode GeocodeConfig `json:"geocode" mapstructure:"geocode" yaml:"geocode"`

	// Mail handoff
	Mail MailConfig `json:"mail" mapstructure:"mail" yaml:"mail"`
}

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StorageConfig selects the key-value backend and its location.
type StorageConfig struct {
	Backend    string `json:"backend" mapstructure:"backend" yaml:"backend"`             // json, sqlite, memory
	DataDir    string `json:"data_dir" mapstructure:"data_dir" yaml:"data_dir"`          // Base directory for all data
	StateDir   string `json:"state_dir" mapstructure:"state_dir" yaml:"state_dir"`       // JSON backend directory
	DBPath     string `json:"db_path" mapstructure:"db_path" yaml:"db_path"`             // SQLite backend file
	ExportDir  string `json:"export_dir" mapstructure:"export_dir" yaml:"export_dir"`    // Backups and reports
	StateKey   string `json:"state_key" mapstructure:"state_key" yaml:"state_key"`       // Versioned document key
	LegacyKey  string `json:"legacy_key" mapstructure:"legacy_key" yaml:"legacy_key"`    // Pre-versioning key
	ProfileKey string `json:"profile_key" mapstructure:"profile_key" yaml:"profile_key"` // Profile document key
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`    // debug, info, warn, error
	Format string `json:"format" mapstructure:"format" yaml:"format"` // text, json
	File   string `json:"file" mapstructure:"file" yaml:"file"`       // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color" yaml:"color"`    // Colour text output on terminals
}

// ReportConfig controls summaries and exports.
type ReportConfig struct {
	BaseCurrency string `json:"base_currency" mapstructure:"base_currency" yaml:"base_currency"`
	Language     string `json:"language" mapstructure:"language" yaml:"language"`
	AppID        string `json:"app_id" mapstructure:"app_id" yaml:"app_id"`
}

// DraftConfig for the leg form autosave.
type DraftConfig struct {
	Debounce time.Duration `json:"debounce" mapstructure:"debounce" yaml:"debounce"`
}

// GeocodeConfig for the reverse geocoding client.
type GeocodeConfig struct {
	Enabled    bool          `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	BaseURL    string        `json:"base_url" mapstructure:"base_url" yaml:"base_url"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`
	UserAgent  string        `json:"user_agent" mapstructure:"user_agent" yaml:"user_agent"`
}

// MailConfig for composed report messages.
type MailConfig struct {
	From          string `json:"from" mapstructure:"from" yaml:"from"`
	To            string `json:"to" mapstructure:"to" yaml:"to"`
	SubjectPrefix string `json:"subject_prefix" mapstructure:"subject_prefix" yaml:"subject_prefix"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	cfg := baseConfig()
	cfg.ResolvePaths()
	return cfg
}

// baseConfig holds the defaults before data-dir relative paths are derived.
func baseConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendJSON,
			DataDir:    ".triplog",
			StateKey:   "triplog.v2",
			LegacyKey:  "triplog",
			ProfileKey: "vehicle-suite.profile",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Color:  true,
		},
		Report: ReportConfig{
			BaseCurrency: "EUR",
			Language:     "en",
			AppID:        "triplog",
		},
		Draft: DraftConfig{
			Debounce: 250 * time.Millisecond,
		},
		Geocode: GeocodeConfig{
			Enabled:    false,
			BaseURL:    "https://nominatim.openstreetmap.org",
			Timeout:    5 * time.Second,
			MaxRetries: 2,
			UserAgent:  "triplog/1.0",
		},
		Mail: MailConfig{
			From:          "triplog@localhost",
			SubjectPrefix: "Trip report",
		},
	}
}

// ResolvePaths fills empty storage paths relative to the data directory.
func (c *Config) ResolvePaths() {
	if c.Storage.StateDir == "" {
		c.Storage.StateDir = filepath.Join(c.Storage.DataDir, "state")
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = filepath.Join(c.Storage.DataDir, "triplog.db")
	}
	if c.Storage.ExportDir == "" {
		c.Storage.ExportDir = filepath.Join(c.Storage.DataDir, "exports")
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	validBackends := map[string]bool{
		BackendJSON: true, BackendSQLite: true, BackendMemory: true,
	}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	if c.Storage.StateKey == "" {
		return errors.New("storage.state_key is required")
	}

	if c.Storage.StateKey == c.Storage.LegacyKey {
		return errors.New("storage.legacy_key must differ from storage.state_key")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	if len(c.Report.BaseCurrency) != 3 {
		return fmt.Errorf("invalid base currency: %q", c.Report.BaseCurrency)
	}

	if c.Draft.Debounce < 0 {
		return errors.New("draft.debounce must not be negative")
	}

	if c.Geocode.Enabled {
		if c.Geocode.BaseURL == "" {
			return errors.New("geocode.base_url is required")
		}
		if c.Geocode.Timeout <= 0 {
			return errors.New("geocode.timeout must be positive")
		}
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.Storage.ExportDir,
	}

	switch c.Storage.Backend {
	case BackendJSON:
		dirs = append(dirs, c.Storage.StateDir)
	case BackendSQLite:
		dirs = append(dirs, filepath.Dir(c.Storage.DBPath))
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
