package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/streed/ml-todos/internal/constants"
	interrors "github.com/streed/ml-todos/internal/errors"
)

const appName = "ml-todos"

// Environment variables layered over the config file.
const (
	EnvDatabaseURL    = "ML_TODOS_DATABASE_URL"
	EnvDatabaseURLAlt = "DATABASE_URL"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
	EnvEmbeddingModel = "ML_TODOS_EMBEDDING_MODEL"
	EnvPort           = "ML_TODOS_PORT"
)

type Config struct {
	DatabasePath  string `json:"database_path,omitempty"`
	DataDirectory string `json:"data_directory,omitempty"`

	Host string `json:"host"`
	Port int    `json:"port"`

	EmbeddingProvider       string `json:"embedding_provider"`
	EmbeddingModel          string `json:"embedding_model"`
	EmbeddingBaseURL        string `json:"embedding_base_url,omitempty"`
	VectorDimensions        int    `json:"vector_dimensions"`
	EmbeddingTimeoutSeconds int    `json:"embedding_timeout_seconds"`
	EmbedOnWrite            bool   `json:"embed_on_write"`
	VectorConfigVersion     string `json:"vector_config_version,omitempty"`

	SearchLimit        int  `json:"search_limit"`
	SearchCandidates   int  `json:"search_candidates"`
	ThemeLimit         int  `json:"theme_limit"`
	ThemesEmbeddedOnly bool `json:"themes_embedded_only"`
	QueryCacheSize     int  `json:"query_cache_size"`
	ReindexConcurrency int  `json:"reindex_concurrency"`

	Debug bool `json:"debug"`

	// APIKey comes from the environment only and is never persisted.
	APIKey string `json:"-"`
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		Host:                    "localhost",
		Port:                    3000,
		EmbeddingProvider:       constants.DefaultEmbeddingProviderID,
		EmbeddingModel:          constants.DefaultEmbeddingModel,
		VectorDimensions:        constants.DefaultVectorDimensions,
		EmbeddingTimeoutSeconds: int(constants.DefaultEmbeddingTimeout / time.Second),
		EmbedOnWrite:            true,
		SearchLimit:             constants.DefaultSearchLimit,
		SearchCandidates:        constants.DefaultSearchCandidates,
		ThemeLimit:              constants.DefaultThemeLimit,
		ThemesEmbeddedOnly:      false,
		QueryCacheSize:          constants.DefaultQueryCacheSize,
		ReindexConcurrency:      constants.DefaultReindexWorkers,
		Debug:                   false,
	}
}

// Default returns the built-in configuration with data paths resolved.
func Default() *Config {
	cfg := getDefaultConfig()
	cfg.applyDefaults()
	return &cfg
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, appName, "config.json"), nil
}

func GetDefaultDataDirectory() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+appName)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, appName)
}

// Load reads the config file (defaults when absent), then loads a .env file
// from the working directory if present and applies environment overrides.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg.ApplyEnv()

	return cfg, nil
}

// LoadFile reads a config file without consulting the environment.
func LoadFile(path string) (*Config, error) {
	cfg := getDefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := getDefaultConfig()

	if c.DataDirectory == "" {
		c.DataDirectory = GetDefaultDataDirectory()
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDirectory, "todos.db")
	}
	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.EmbeddingProvider == "" {
		c.EmbeddingProvider = defaults.EmbeddingProvider
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaults.EmbeddingModel
	}
	if c.VectorDimensions == 0 {
		c.VectorDimensions = defaults.VectorDimensions
	}
	if c.EmbeddingTimeoutSeconds <= 0 {
		c.EmbeddingTimeoutSeconds = defaults.EmbeddingTimeoutSeconds
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = defaults.SearchLimit
	}
	if c.SearchCandidates <= 0 {
		c.SearchCandidates = defaults.SearchCandidates
	}
	if c.SearchCandidates < c.SearchLimit {
		c.SearchCandidates = c.SearchLimit
	}
	if c.ThemeLimit <= 0 {
		c.ThemeLimit = defaults.ThemeLimit
	}
	if c.QueryCacheSize < 0 {
		c.QueryCacheSize = 0
	}
	if c.ReindexConcurrency <= 0 {
		c.ReindexConcurrency = defaults.ReindexConcurrency
	}
}

// ApplyEnv overlays environment variables on top of the file configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabasePath = databasePathFromURL(v)
	} else if v := os.Getenv(EnvDatabaseURLAlt); v != "" {
		c.DatabasePath = databasePathFromURL(v)
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvOpenAIBaseURL); v != "" {
		c.EmbeddingBaseURL = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.EmbeddingModel = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Port = port
		}
	}
}

// databasePathFromURL accepts either a plain path or a sqlite:// / file: URL.
func databasePathFromURL(v string) string {
	for _, prefix := range []string{"sqlite3://", "sqlite://", "file:"} {
		if strings.HasPrefix(v, prefix) {
			v = strings.TrimPrefix(v, prefix)
			if i := strings.IndexByte(v, '?'); i >= 0 {
				v = v[:i]
			}
			return v
		}
	}
	return v
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, configPath)
}

func SaveFile(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if cfg.DataDirectory != "" {
		if err := os.MkdirAll(cfg.DataDirectory, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, constants.ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func InitializeConfig(dataDir, embeddingProvider string) (*Config, error) {
	cfg := getDefaultConfig()

	if dataDir != "" {
		cfg.DataDirectory = dataDir
	}
	if embeddingProvider != "" {
		cfg.EmbeddingProvider = embeddingProvider
	}
	cfg.applyDefaults()
	cfg.VectorConfigVersion = cfg.GetVectorConfigHash()

	if err := Save(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDirectory, "todos.db")
}

func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.EmbeddingTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) GetVectorConfigHash() string {
	return fmt.Sprintf("%s-%s-%d", c.EmbeddingProvider, c.EmbeddingModel, c.VectorDimensions)
}

func (c *Config) NeedsReindex(oldHash string) bool {
	return c.GetVectorConfigHash() != oldHash
}

// Set updates a single key as named on the command line. It reports whether
// the change invalidates stored embeddings.
func (c *Config) Set(key, value string) (needsReindex bool, err error) {
	oldHash := c.GetVectorConfigHash()

	switch key {
	case "data-dir":
		c.DataDirectory = value
		c.DatabasePath = filepath.Join(value, "todos.db")
	case "database-path":
		c.DatabasePath = value
	case "host":
		c.Host = value
	case "port":
		c.Port, err = parsePositive(key, value)
	case "embedding-provider":
		if value != constants.EmbeddingProviderOpenAI && value != constants.EmbeddingProviderHash {
			return false, fmt.Errorf("unknown embedding provider %q (use %s or %s)", value,
				constants.EmbeddingProviderOpenAI, constants.EmbeddingProviderHash)
		}
		c.EmbeddingProvider = value
	case "embedding-model":
		c.EmbeddingModel = value
	case "embedding-base-url":
		c.EmbeddingBaseURL = value
	case "vector-dimensions":
		c.VectorDimensions, err = parsePositive(key, value)
	case "embedding-timeout":
		c.EmbeddingTimeoutSeconds, err = parsePositive(key, value)
	case "embed-on-write":
		c.EmbedOnWrite, err = ParseBool(value)
	case "search-limit":
		c.SearchLimit, err = parsePositive(key, value)
	case "search-candidates":
		c.SearchCandidates, err = parsePositive(key, value)
	case "theme-limit":
		c.ThemeLimit, err = parsePositive(key, value)
	case "themes-embedded-only":
		c.ThemesEmbeddedOnly, err = ParseBool(value)
	case "query-cache-size":
		c.QueryCacheSize, err = strconv.Atoi(value)
	case "reindex-concurrency":
		c.ReindexConcurrency, err = parsePositive(key, value)
	case "debug":
		c.Debug, err = ParseBool(value)
	default:
		return false, fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
	if err != nil {
		return false, err
	}

	c.applyDefaults()
	return oldHash != c.GetVectorConfigHash(), nil
}

func ParseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case constants.BoolTrue, constants.BoolOne, constants.BoolYes:
		return true, nil
	case constants.BoolFalse, constants.BoolZero, constants.BoolNo:
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", interrors.ErrInvalidBoolean, value)
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}
