package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, config.BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, "triplog.v2", cfg.Storage.StateKey)
	assert.Equal(t, "triplog", cfg.Storage.LegacyKey)
	assert.Equal(t, "vehicle-suite.profile", cfg.Storage.ProfileKey)
	assert.Equal(t, filepath.Join(".triplog", "state"), cfg.Storage.StateDir)
	assert.Equal(t, "EUR", cfg.Report.BaseCurrency)
	assert.Positive(t, cfg.Draft.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(c *config.Config) {},
			wantErr: "",
		},
		{
			name: "unknown backend",
			modify: func(c *config.Config) {
				c.Storage.Backend = "redis"
			},
			wantErr: "invalid storage backend",
		},
		{
			name: "missing state key",
			modify: func(c *config.Config) {
				c.Storage.StateKey = ""
			},
			wantErr: "storage.state_key is required",
		},
		{
			name: "legacy key equals state key",
			modify: func(c *config.Config) {
				c.Storage.LegacyKey = c.Storage.StateKey
			},
			wantErr: "legacy_key must differ",
		},
		{
			name: "invalid log level",
			modify: func(c *config.Config) {
				c.Log.Level = "invalid"
			},
			wantErr: "invalid log level",
		},
		{
			name: "bad currency",
			modify: func(c *config.Config) {
				c.Report.BaseCurrency = "EURO"
			},
			wantErr: "invalid base currency",
		},
		{
			name: "geocode enabled without timeout",
			modify: func(c *config.Config) {
				c.Geocode.Enabled = true
				c.Geocode.Timeout = 0
			},
			wantErr: "geocode.timeout must be positive",
		},
		{
			name: "geocode disabled ignores timeout",
			modify: func(c *config.Config) {
				c.Geocode.Timeout = 0
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoaderEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRIPLOG_STORAGE_BACKEND", "sqlite")
	t.Setenv("TRIPLOG_STORAGE_DATA_DIR", "/tmp/triplog-env")
	t.Setenv("TRIPLOG_LOG_LEVEL", "DEBUG")
	t.Setenv("TRIPLOG_DRAFT_DEBOUNCE", "1s")
	t.Setenv("TRIPLOG_REPORT_BASE_CURRENCY", "usd")

	loader := config.NewLoader("")
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.Draft.Debounce)
	assert.Equal(t, "USD", cfg.Report.BaseCurrency)
	assert.Equal(t, filepath.Join("/tmp/triplog-env", "triplog.db"), cfg.Storage.DBPath)
}

func TestLoaderFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.json")

	configJSON := `{
		"storage": {
			"data_dir": "` + filepath.ToSlash(tmpDir) + `",
			"state_key": "custom.v2"
		},
		"log": {
			"level": "warn",
			"format": "json"
		},
		"geocode": {
			"timeout": "3s"
		}
	}`

	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, configPath, loader.ConfigPath())
	assert.Equal(t, "custom.v2", cfg.Storage.StateKey)
	assert.Equal(t, "triplog", cfg.Storage.LegacyKey)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3*time.Second, cfg.Geocode.Timeout)
	assert.Equal(t, 2, cfg.Geocode.MaxRetries)
}

func TestLoaderMissingExplicitFile(t *testing.T) {
	loader := config.NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderInvalidValue(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRIPLOG_LOG_FORMAT", "xml")

	_, err := config.NewLoader("").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestSaveExampleRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "conf", "triplog.yaml")

	require.NoError(t, config.SaveExample(path))
	assert.FileExists(t, path)

	cfg, err := config.NewLoader(path).Load()
	require.NoError(t, err)

	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.Storage, cfg.Storage)
	assert.Equal(t, defaults.Draft.Debounce, cfg.Draft.Debounce)
	assert.Equal(t, defaults.Geocode.Timeout, cfg.Geocode.Timeout)

	assert.Error(t, config.SaveExample(path), "existing file is not overwritten")
}

func TestConfigEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(tmpDir, "data")
	cfg.Storage.StateDir = filepath.Join(tmpDir, "data", "state")
	cfg.Storage.ExportDir = filepath.Join(tmpDir, "data", "exports")
	cfg.Log.File = filepath.Join(tmpDir, "logs", "app.log")

	err := cfg.EnsureDirectories()
	require.NoError(t, err)

	assert.DirExists(t, cfg.Storage.DataDir)
	assert.DirExists(t, cfg.Storage.StateDir)
	assert.DirExists(t, cfg.Storage.ExportDir)
	assert.DirExists(t, filepath.Dir(cfg.Log.File))
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
