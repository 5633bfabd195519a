package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1536, cfg.Vector.Dimension)
	assert.Equal(t, 5, cfg.Chat.HistoryWindow)
	assert.Equal(t, "structured", cfg.Chat.Mode)
	assert.True(t, cfg.Chat.SemanticFallback)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
database:
  driver: postgres
  postgres:
    dsn: postgres://test@localhost/moviemind?sslmode=disable
chat:
  mode: semantic
  history_window: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "semantic", cfg.Chat.Mode)
	assert.Equal(t, 3, cfg.Chat.HistoryWindow)

	// Untouched sections keep their defaults.
	assert.Equal(t, "text-embedding-ada-002", cfg.Embedding.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/override.db")
	t.Setenv("CHAT_MODE", "semantic")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/override.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "semantic", cfg.Chat.Mode)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad chat mode", func(c *Config) { c.Chat.Mode = "hybrid" }},
		{"dimension mismatch", func(c *Config) { c.Embedding.Dimension = 768 }},
		{"zero history window", func(c *Config) { c.Chat.HistoryWindow = 0 }},
		{"max results above cap", func(c *Config) { c.Chat.MaxResults = 100; c.Chat.ResultCap = 50 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Database.SQLite.Path, cfg.DatabaseDSN())

	cfg.Database.Driver = "postgres"
	cfg.Database.Postgres.DSN = "postgres://u@h/db"
	assert.Equal(t, "postgres://u@h/db", cfg.DatabaseDSN())
}
