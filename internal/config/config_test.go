package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, cfg map[string]interface{}) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("creates default config when missing", func(t *testing.T) {
		tmp := t.TempDir()

		cfg, err := LoadConfig(tmp)

		require.NoError(t, err)
		expectedPath := filepath.Join(tmp, ".svnreview", "config.json")
		assert.Equal(t, expectedPath, cfg.PathFile)
		assert.FileExists(t, expectedPath)
		assert.True(t, cfg.AI.UseMock)
		assert.Equal(t, ProviderMock, cfg.ActiveProvider())
		assert.Equal(t, ":3000", cfg.Server.Addr)
		assert.False(t, cfg.Server.TrustProxy)
		assert.Equal(t, 30000, cfg.SVN.TimeoutMs)
		assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
		assert.Equal(t, 60000, cfg.RateLimit.WindowMs)
		assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
		assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
		assert.Equal(t, filepath.Join(tmp, ".svnreview", "svnreview.db"), cfg.Store.Path)
		assert.Equal(t, filepath.Join(tmp, ".svnreview", "cache"), cfg.AI.CacheDir)
	})

	t.Run("reads an explicit json file and fills missing keys with defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), map[string]interface{}{
			"svn": map[string]interface{}{"url": "svn://example.com/repo", "timeout_ms": 5000},
			"ai":  map[string]interface{}{"use_mock": true},
		})

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "svn://example.com/repo", cfg.SVN.URL)
		assert.Equal(t, 5000, cfg.SVN.TimeoutMs)
		assert.Equal(t, "svn", cfg.SVN.Binary)
		assert.Equal(t, "gpt-4", cfg.AI.Model)
		assert.Equal(t, "en", cfg.Language)
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), map[string]interface{}{
			"ai": map[string]interface{}{"use_mock": true},
		})
		t.Setenv("SVNREVIEW_SVN_URL", "https://svn.example.com/trunk")
		t.Setenv("SVNREVIEW_RATE_LIMIT_MAX_REQUESTS", "3")
		t.Setenv("SVNREVIEW_SERVER_TRUST_PROXY", "true")

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "https://svn.example.com/trunk", cfg.SVN.URL)
		assert.Equal(t, 3, cfg.RateLimit.MaxRequests)
		assert.True(t, cfg.Server.TrustProxy)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{invalid"), 0600))

		_, err := LoadConfig(path)

		assert.Error(t, err)
	})

	t.Run("openai without api key is rejected", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), map[string]interface{}{
			"ai": map[string]interface{}{"use_mock": false, "provider": "openai"},
		})

		_, err := LoadConfig(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ai.api_key")
	})
}

func TestSaveConfig(t *testing.T) {
	t.Run("round trips through LoadConfig", func(t *testing.T) {
		tmp := t.TempDir()
		cfg, err := LoadConfig(tmp)
		require.NoError(t, err)

		cfg.SVN.URL = "svn://saved/repo"
		cfg.RateLimit.MaxRequests = 42
		require.NoError(t, SaveConfig(cfg))

		reloaded, err := LoadConfig(tmp)
		require.NoError(t, err)
		assert.Equal(t, "svn://saved/repo", reloaded.SVN.URL)
		assert.Equal(t, 42, reloaded.RateLimit.MaxRequests)
	})

	t.Run("without path", func(t *testing.T) {
		cfg := Defaults()
		cfg.AI.UseMock = true

		err := SaveConfig(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "path")
	})

	t.Run("invalid config is not written", func(t *testing.T) {
		cfg := Defaults()
		cfg.AI.UseMock = true
		cfg.PathFile = filepath.Join(t.TempDir(), "config.json")
		cfg.RateLimit.MaxRequests = 0

		err := SaveConfig(cfg)

		require.Error(t, err)
		assert.NoFileExists(t, cfg.PathFile)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		c := Defaults()
		c.AI.UseMock = true
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults with mock", func(c *Config) {}, ""},
		{"openai with key", func(c *Config) { c.AI.UseMock = false; c.AI.APIKey = "sk-test" }, ""},
		{"gemini without key", func(c *Config) { c.AI.UseMock = false; c.AI.Provider = "gemini" }, "gemini.api_key"},
		{"gemini with key", func(c *Config) {
			c.AI.UseMock = false
			c.AI.Provider = "gemini"
			c.Gemini.APIKey = "g-key"
		}, ""},
		{"unknown provider", func(c *Config) { c.AI.UseMock = false; c.AI.Provider = "llama" }, "unsupported ai provider"},
		{"empty language", func(c *Config) { c.Language = "" }, "language"},
		{"zero svn timeout", func(c *Config) { c.SVN.TimeoutMs = 0 }, "svn.timeout_ms"},
		{"zero ai timeout", func(c *Config) { c.AI.TimeoutMs = 0 }, "ai.timeout_ms"},
		{"negative mock delay", func(c *Config) { c.AI.MockDelayMs = -1 }, "mock_delay_ms"},
		{"zero window", func(c *Config) { c.RateLimit.WindowMs = 0 }, "window_ms"},
		{"zero sweep", func(c *Config) { c.RateLimit.SweepIntervalMs = 0 }, "sweep_interval_ms"},
		{"page size above max", func(c *Config) { c.Pagination.DefaultPageSize = 500 }, "default_page_size"},
		{"max page size zero", func(c *Config) { c.Pagination.MaxPageSize = 0 }, "max_page_size"},
		{"unknown store", func(c *Config) { c.Store.Driver = "postgres" }, "store driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)

			err := validateConfig(c)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurations(t *testing.T) {
	c := Defaults()

	assert.Equal(t, "30s", c.SVNTimeout().String())
	assert.Equal(t, "1m0s", c.RateLimitWindow().String())
	assert.Equal(t, "100ms", c.MockDelay().String())
	assert.Equal(t, "24h0m0s", c.CacheTTL().String())
}
