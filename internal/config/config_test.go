package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interrors "github.com/streed/ml-todos/internal/errors"
)

func TestGetDefaultDataDirectory(t *testing.T) {
	tests := []struct {
		name     string
		xdgHome  string
		expected string
	}{
		{
			name:     "With XDG_DATA_HOME set",
			xdgHome:  "/custom/data",
			expected: "/custom/data/ml-todos",
		},
		{
			name:    "Without XDG_DATA_HOME",
			xdgHome: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_DATA_HOME", tt.xdgHome)
			result := GetDefaultDataDirectory()

			if tt.xdgHome == "" {
				homeDir, _ := os.UserHomeDir()
				assert.Equal(t, filepath.Join(homeDir, ".local", "share", "ml-todos"), result)
				return
			}
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "openai", cfg.EmbeddingProvider)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.VectorDimensions)
	assert.Equal(t, 3, cfg.SearchLimit)
	assert.Equal(t, 100, cfg.SearchCandidates)
	assert.Equal(t, 5, cfg.ThemeLimit)
	assert.True(t, cfg.EmbedOnWrite)
	assert.False(t, cfg.ThemesEmbeddedOnly)
	assert.Equal(t, filepath.Join(cfg.DataDirectory, "todos.db"), cfg.GetDatabasePath())
}

func TestSaveAndLoadFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "ml-todos", "config.json")

	cfg := Default()
	cfg.DataDirectory = filepath.Join(tempDir, "data")
	cfg.DatabasePath = filepath.Join(cfg.DataDirectory, "todos.db")
	cfg.Port = 4000
	cfg.EmbedOnWrite = false
	cfg.APIKey = "sk-secret"

	require.NoError(t, SaveFile(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-secret")

	var onDisk map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, false, onDisk["embed_on_write"])

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, loaded.Port)
	assert.False(t, loaded.EmbedOnWrite)
	assert.Equal(t, cfg.DatabasePath, loaded.DatabasePath)
	assert.Empty(t, loaded.APIKey)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "sqlite:///tmp/env.db?_busy_timeout=5000")
	t.Setenv(EnvOpenAIKey, "sk-env")
	t.Setenv(EnvOpenAIBaseURL, "http://localhost:9999/v1")
	t.Setenv(EnvEmbeddingModel, "text-embedding-3-small")
	t.Setenv(EnvPort, "8088")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "/tmp/env.db", cfg.DatabasePath)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999/v1", cfg.EmbeddingBaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 8088, cfg.Port)
}

func TestDatabasePathFromURL(t *testing.T) {
	tests := map[string]string{
		"/var/lib/todos.db":          "/var/lib/todos.db",
		"sqlite3:///data/a.db":       "/data/a.db",
		"file:notes.db?cache=shared": "notes.db",
	}
	for in, want := range tests {
		assert.Equal(t, want, databasePathFromURL(in), in)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		wantErr      error
		needsReindex bool
		check        func(t *testing.T, c *Config)
	}{
		{
			name:  "port",
			key:   "port",
			value: "8081",
			check: func(t *testing.T, c *Config) { assert.Equal(t, 8081, c.Port) },
		},
		{
			name:         "embedding model changes vectors",
			key:          "embedding-model",
			value:        "text-embedding-3-large",
			needsReindex: true,
		},
		{
			name:  "themes embedded only",
			key:   "themes-embedded-only",
			value: "yes",
			check: func(t *testing.T, c *Config) { assert.True(t, c.ThemesEmbeddedOnly) },
		},
		{
			name:    "bad boolean",
			key:     "debug",
			value:   "maybe",
			wantErr: interrors.ErrInvalidBoolean,
		},
		{
			name:    "unknown key",
			key:     "ollama-endpoint",
			value:   "x",
			wantErr: interrors.ErrUnknownConfigKey,
		},
		{
			name:  "candidates never below limit",
			key:   "search-candidates",
			value: "1",
			check: func(t *testing.T, c *Config) { assert.Equal(t, c.SearchLimit, c.SearchCandidates) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			needsReindex, err := cfg.Set(tt.key, tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.needsReindex, needsReindex)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
