package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Language   string           `json:"language" mapstructure:"language"`
		Server     ServerConfig     `json:"server" mapstructure:"server"`
		SVN        SVNConfig        `json:"svn" mapstructure:"svn"`
		AI         AIConfig         `json:"ai" mapstructure:"ai"`
		Gemini     GeminiConfig     `json:"gemini" mapstructure:"gemini"`
		RateLimit  RateLimitConfig  `json:"rate_limit" mapstructure:"rate_limit"`
		Pagination PaginationConfig `json:"pagination" mapstructure:"pagination"`
		Store      StoreConfig      `json:"store" mapstructure:"store"`

		PathFile string `json:"-" mapstructure:"-"`
	}

	ServerConfig struct {
		Addr           string `json:"addr" mapstructure:"addr"`
		ReadTimeoutMs  int    `json:"read_timeout_ms" mapstructure:"read_timeout_ms"`
		WriteTimeoutMs int    `json:"write_timeout_ms" mapstructure:"write_timeout_ms"`
		LogFormat      string `json:"log_format" mapstructure:"log_format"`
		TrustProxy     bool   `json:"trust_proxy" mapstructure:"trust_proxy"`
	}

	SVNConfig struct {
		URL       string `json:"url" mapstructure:"url"`
		Username  string `json:"username,omitempty" mapstructure:"username"`
		Password  string `json:"password,omitempty" mapstructure:"password"`
		TimeoutMs int    `json:"timeout_ms" mapstructure:"timeout_ms"`
		Binary    string `json:"binary" mapstructure:"binary"`
	}

	AIConfig struct {
		Provider      string `json:"provider" mapstructure:"provider"`
		UseMock       bool   `json:"use_mock" mapstructure:"use_mock"`
		APIKey        string `json:"api_key,omitempty" mapstructure:"api_key"`
		BaseURL       string `json:"base_url" mapstructure:"base_url"`
		Model         string `json:"model" mapstructure:"model"`
		TimeoutMs     int    `json:"timeout_ms" mapstructure:"timeout_ms"`
		MockDelayMs   int    `json:"mock_delay_ms" mapstructure:"mock_delay_ms"`
		CacheTTLHours int    `json:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
		CacheDir      string `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
		RedactSecrets bool   `json:"redact_secrets" mapstructure:"redact_secrets"`
	}

	GeminiConfig struct {
		APIKey string `json:"api_key,omitempty" mapstructure:"api_key"`
		Model  string `json:"model" mapstructure:"model"`
	}

	RateLimitConfig struct {
		MaxRequests     int `json:"max_requests" mapstructure:"max_requests"`
		WindowMs        int `json:"window_ms" mapstructure:"window_ms"`
		SweepIntervalMs int `json:"sweep_interval_ms" mapstructure:"sweep_interval_ms"`
	}

	PaginationConfig struct {
		DefaultPageSize int `json:"default_page_size" mapstructure:"default_page_size"`
		MaxPageSize     int `json:"max_page_size" mapstructure:"max_page_size"`
	}

	StoreConfig struct {
		Driver string `json:"driver" mapstructure:"driver"`
		Path   string `json:"path,omitempty" mapstructure:"path"`
	}
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"

	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	envPrefix = "SVNREVIEW"
	configDir = ".svnreview"
)

const (
	defaultLang            = "en"
	defaultAddr            = ":3000"
	defaultServerTimeoutMs = 120000
	defaultSVNTimeoutMs    = 30000
	defaultSVNBinary       = "svn"
	defaultProvider        = ProviderOpenAI
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultModel           = "gpt-4"
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultAITimeoutMs     = 30000
	defaultMockDelayMs     = 100
	defaultCacheTTLHours   = 24
	defaultMaxRequests     = 10
	defaultWindowMs        = 60000
	defaultSweepMs         = 60000
	defaultPageSize        = 20
	defaultMaxPageSize     = 100
)

// Defaults returns the configuration used when no file or environment overrides exist.
func Defaults() *Config {
	return &Config{
		Language: defaultLang,
		Server: ServerConfig{
			Addr:           defaultAddr,
			ReadTimeoutMs:  defaultServerTimeoutMs,
			WriteTimeoutMs: defaultServerTimeoutMs,
			LogFormat:      "text",
		},
		SVN: SVNConfig{
			TimeoutMs: defaultSVNTimeoutMs,
			Binary:    defaultSVNBinary,
		},
		AI: AIConfig{
			Provider:      defaultProvider,
			BaseURL:       defaultBaseURL,
			Model:         defaultModel,
			TimeoutMs:     defaultAITimeoutMs,
			MockDelayMs:   defaultMockDelayMs,
			CacheTTLHours: defaultCacheTTLHours,
			RedactSecrets: true,
		},
		Gemini: GeminiConfig{
			Model: defaultGeminiModel,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:     defaultMaxRequests,
			WindowMs:        defaultWindowMs,
			SweepIntervalMs: defaultSweepMs,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: defaultPageSize,
			MaxPageSize:     defaultMaxPageSize,
		},
		Store: StoreConfig{
			Driver: StoreSQLite,
		},
	}
}

// LoadConfig reads the config file at path (a .json file, or a directory under which
// .svnreview/config.json lives), creating it with defaults when missing, and applies
// SVNREVIEW_* environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, err := createDefaultConfig(configPath); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("error checking config file: %w", err)
	}

	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	cfg.PathFile = configPath

	if cfg.Store.Driver == StoreSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(filepath.Dir(configPath), "svnreview.db")
	}
	if cfg.AI.CacheDir == "" {
		cfg.AI.CacheDir = filepath.Join(filepath.Dir(configPath), "cache")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loaded configuration is invalid: %w", err)
	}

	return &cfg, nil
}

func resolvePath(path string) (string, error) {
	if filepath.Ext(path) == ".json" {
		return path, nil
	}

	base := path
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		base = home
	}

	return filepath.Join(base, configDir, "config.json"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("language", d.Language)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout_ms", d.Server.ReadTimeoutMs)
	v.SetDefault("server.write_timeout_ms", d.Server.WriteTimeoutMs)
	v.SetDefault("server.log_format", d.Server.LogFormat)
	v.SetDefault("server.trust_proxy", d.Server.TrustProxy)
	v.SetDefault("svn.url", d.SVN.URL)
	v.SetDefault("svn.username", d.SVN.Username)
	v.SetDefault("svn.password", d.SVN.Password)
	v.SetDefault("svn.timeout_ms", d.SVN.TimeoutMs)
	v.SetDefault("svn.binary", d.SVN.Binary)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.use_mock", d.AI.UseMock)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.timeout_ms", d.AI.TimeoutMs)
	v.SetDefault("ai.mock_delay_ms", d.AI.MockDelayMs)
	v.SetDefault("ai.cache_ttl_hours", d.AI.CacheTTLHours)
	v.SetDefault("ai.cache_dir", d.AI.CacheDir)
	v.SetDefault("ai.redact_secrets", d.AI.RedactSecrets)
	v.SetDefault("gemini.api_key", d.Gemini.APIKey)
	v.SetDefault("gemini.model", d.Gemini.Model)
	v.SetDefault("rate_limit.max_requests", d.RateLimit.MaxRequests)
	v.SetDefault("rate_limit.window_ms", d.RateLimit.WindowMs)
	v.SetDefault("rate_limit.sweep_interval_ms", d.RateLimit.SweepIntervalMs)
	v.SetDefault("pagination.default_page_size", d.Pagination.DefaultPageSize)
	v.SetDefault("pagination.max_page_size", d.Pagination.MaxPageSize)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)

	return v
}

func createDefaultConfig(path string) (*Config, error) {
	cfg := Defaults()
	cfg.AI.UseMock = true
	cfg.PathFile = path

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("error saving default config: %w", err)
	}

	return cfg, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration to save is invalid: %w", err)
	}

	if config.PathFile == "" {
		return errors.New("config file path is not set")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(config.PathFile, data, 0600); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	return nil
}

// ActiveProvider is the provider name the review pipeline should build.
func (c *Config) ActiveProvider() string {
	if c.AI.UseMock {
		return ProviderMock
	}
	return strings.ToLower(c.AI.Provider)
}

func (c *Config) SVNTimeout() time.Duration {
	return time.Duration(c.SVN.TimeoutMs) * time.Millisecond
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutMs) * time.Millisecond
}

func (c *Config) MockDelay() time.Duration {
	return time.Duration(c.AI.MockDelayMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.AI.CacheTTLHours) * time.Hour
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMs) * time.Millisecond
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.RateLimit.SweepIntervalMs) * time.Millisecond
}

func validateConfig(config *Config) error {
	if config.Language == "" {
		return errors.New("language cannot be empty")
	}
	if config.SVN.TimeoutMs <= 0 {
		return errors.New("svn.timeout_ms must be greater than 0")
	}
	if config.AI.TimeoutMs <= 0 {
		return errors.New("ai.timeout_ms must be greater than 0")
	}
	if config.AI.MockDelayMs < 0 {
		return errors.New("ai.mock_delay_ms cannot be negative")
	}
	if config.AI.CacheTTLHours < 0 {
		return errors.New("ai.cache_ttl_hours cannot be negative")
	}
	if config.RateLimit.MaxRequests <= 0 {
		return errors.New("rate_limit.max_requests must be greater than 0")
	}
	if config.RateLimit.WindowMs <= 0 {
		return errors.New("rate_limit.window_ms must be greater than 0")
	}
	if config.RateLimit.SweepIntervalMs <= 0 {
		return errors.New("rate_limit.sweep_interval_ms must be greater than 0")
	}
	if config.Pagination.MaxPageSize < 1 {
		return errors.New("pagination.max_page_size must be at least 1")
	}
	if config.Pagination.DefaultPageSize < 1 || config.Pagination.DefaultPageSize > config.Pagination.MaxPageSize {
		return fmt.Errorf("pagination.default_page_size must be between 1 and %d", config.Pagination.MaxPageSize)
	}

	switch config.Store.Driver {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unsupported store driver: %s", config.Store.Driver)
	}

	switch config.ActiveProvider() {
	case ProviderMock:
	case ProviderOpenAI:
		if config.AI.APIKey == "" {
			return errors.New("ai.api_key is required when using the openai provider")
		}
	case ProviderGemini:
		if config.Gemini.APIKey == "" {
			return errors.New("gemini.api_key is required when using the gemini provider")
		}
	default:
		return fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	return nil
}
