package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty path searches the default
// locations and tolerates a missing file.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "TRIPLOG",
	}
}

// ConfigPath returns the file the last Load read, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// Load reads configuration from defaults, file and environment.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, baseConfig())

	// TRIPLOG_LOG_LEVEL -> log.level
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath == "" {
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				l.configPath = path
				break
			}
		}
	}

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	cfg := baseConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	cfg.Report.BaseCurrency = strings.ToUpper(cfg.Report.BaseCurrency)
	cfg.ResolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"triplog.yaml",
		".triplog.yaml",
		"triplog.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "triplog", "config.yaml"),
			filepath.Join(homeDir, ".triplog", "config.yaml"),
		)
	}

	return paths
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.state_dir", cfg.Storage.StateDir)
	v.SetDefault("storage.db_path", cfg.Storage.DBPath)
	v.SetDefault("storage.export_dir", cfg.Storage.ExportDir)
	v.SetDefault("storage.state_key", cfg.Storage.StateKey)
	v.SetDefault("storage.legacy_key", cfg.Storage.LegacyKey)
	v.SetDefault("storage.profile_key", cfg.Storage.ProfileKey)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.color", cfg.Log.Color)

	v.SetDefault("report.base_currency", cfg.Report.BaseCurrency)
	v.SetDefault("report.language", cfg.Report.Language)
	v.SetDefault("report.app_id", cfg.Report.AppID)

	v.SetDefault("draft.debounce", cfg.Draft.Debounce)

	v.SetDefault("geocode.enabled", cfg.Geocode.Enabled)
	v.SetDefault("geocode.base_url", cfg.Geocode.BaseURL)
	v.SetDefault("geocode.timeout", cfg.Geocode.Timeout)
	v.SetDefault("geocode.max_retries", cfg.Geocode.MaxRetries)
	v.SetDefault("geocode.user_agent", cfg.Geocode.UserAgent)

	v.SetDefault("mail.from", cfg.Mail.From)
	v.SetDefault("mail.to", cfg.Mail.To)
	v.SetDefault("mail.subject_prefix", cfg.Mail.SubjectPrefix)
}

// SaveExample writes an example config file. The format follows the file
// extension (yaml or json).
func SaveExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("report", cfg.Report)
	v.Set("draft", map[string]string{"debounce": cfg.Draft.Debounce.String()})
	v.Set("geocode", map[string]interface{}{
		"enabled":     cfg.Geocode.Enabled,
		"base_url":    cfg.Geocode.BaseURL,
		"timeout":     cfg.Geocode.Timeout.String(),
		"max_retries": cfg.Geocode.MaxRetries,
		"user_agent":  cfg.Geocode.UserAgent,
	})
	v.Set("mail", cfg.Mail)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
