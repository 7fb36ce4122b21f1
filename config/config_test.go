package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/agrimarket/core/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		require.NoError(t, err, "Expected Load to not return an error")
		assert.Equal(t, 8000, cfg.API.Port)
		assert.Equal(t, "0.0.0.0:8000", cfg.API.Addr())
		assert.Equal(t, []string{"*"}, cfg.API.CORSOrigins)
		assert.Equal(t, 10, cfg.Retrieval.SummaryLimit)
		assert.Equal(t, 10, cfg.Retrieval.NewsLimit)
		assert.Equal(t, 5, cfg.Retrieval.PriceLimit)
		assert.Equal(t, 7, cfg.Retrieval.WindowDays)
		assert.Equal(t, 500, cfg.Indexer.BatchSize)
		assert.Equal(t, 1000, cfg.Indexer.ChunkSize)
		assert.Equal(t, 200, cfg.Indexer.ChunkOverlap)
		assert.Equal(t, "@every 1h", cfg.Indexer.Schedule)
		assert.Equal(t, pipeline.DefaultModel, cfg.Embedding.Model)
		assert.Equal(t, pipeline.DefaultDimension, cfg.Embedding.Dimension)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("AGRIMARKET_API_PORT", "9090")
		t.Setenv("AGRIMARKET_RETRIEVAL_WINDOW_DAYS", "14")
		t.Setenv("AGRIMARKET_LOGGING_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.API.Port)
		assert.Equal(t, 14, cfg.Retrieval.WindowDays)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("Config file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		content := "api:\n  port: 8088\nindexer:\n  schedule: \"0 */30 * * * *\"\n  batch_size: 100\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8088, cfg.API.Port)
		assert.Equal(t, "0 */30 * * * *", cfg.Indexer.Schedule)
		assert.Equal(t, 100, cfg.Indexer.BatchSize)
		assert.Equal(t, 1000, cfg.Indexer.ChunkSize, "Expected unset values to keep their default")
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  mmr_lambda: 2\n"), 0o600))

		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, "mmr_lambda")
	})
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Chdir(t.TempDir())
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port", func(c *Config) { c.API.Port = 0 }},
		{"window", func(c *Config) { c.Retrieval.WindowDays = 0 }},
		{"overlap", func(c *Config) { c.Indexer.ChunkOverlap = c.Indexer.ChunkSize }},
		{"dimension", func(c *Config) { c.Embedding.Dimension = -1 }},
		{"schedule", func(c *Config) { c.Indexer.Schedule = "every hour" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.modify(cfg)
			assert.Error(t, cfg.Validate(), "Expected invalid %s to be rejected", tt.name)
		})
	}
}
