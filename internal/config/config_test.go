package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "lca.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrentProducts)
	assert.Equal(t, 30, cfg.Batch.ProductTimeoutSecs)
	assert.True(t, cfg.Batch.Prewarm)
	assert.Equal(t, 8, cfg.Batch.PrewarmConcurrency)
	assert.Equal(t, "EF3.1", cfg.Batch.Method)
	assert.Equal(t, SourceBuiltin, cfg.Factors.Source)
	assert.True(t, cfg.Factors.Fallback)
	assert.Equal(t, 3, cfg.Factors.RetryMaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lca.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
batch:
  max_concurrent_products: 4
  product_timeout_secs: 5
  method: recipe
factors:
  source: table
  table_path: factors.csv
schemas:
  dir: ./schemas
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentProducts)
	assert.Equal(t, 5, cfg.Batch.ProductTimeoutSecs)
	assert.Equal(t, "recipe", cfg.Batch.Method)
	assert.Equal(t, SourceTable, cfg.Factors.Source)
	assert.Equal(t, "factors.csv", cfg.Factors.TablePath)
	assert.Equal(t, "./schemas", cfg.Schemas.Dir)
	assert.Equal(t, 8, cfg.Batch.PrewarmConcurrency)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LCA_BATCH_MAX_CONCURRENT_PRODUCTS", "3")
	t.Setenv("LCA_FACTORS_SOURCE", "remote")
	t.Setenv("LCA_FACTORS_REMOTE_URL", "http://factors.local")
	t.Setenv("LCA_FACTORS_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrentProducts)
	assert.Equal(t, SourceRemote, cfg.Factors.Source)
	assert.Equal(t, "secret", cfg.Factors.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:   StoreConfig{Driver: "sqlite"},
			Batch:   BatchConfig{MaxConcurrentProducts: 1, ProductTimeoutSecs: 1},
			Factors: FactorsConfig{Source: SourceBuiltin},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"ok", func(*Config) {}, ""},
		{"driver", func(c *Config) { c.Store.Driver = "mysql" }, "unsupported store driver"},
		{"concurrency", func(c *Config) { c.Batch.MaxConcurrentProducts = 0 }, "max_concurrent_products"},
		{"timeout", func(c *Config) { c.Batch.ProductTimeoutSecs = 0 }, "product_timeout_secs"},
		{"method", func(c *Config) { c.Batch.Method = "TRACI" }, "unknown impact method"},
		{"method alias", func(c *Config) { c.Batch.Method = "ef 3.1" }, ""},
		{"table", func(c *Config) { c.Factors.Source = SourceTable }, "table_path"},
		{"postgres", func(c *Config) { c.Factors.Source = SourcePostgres }, "postgres_url"},
		{"remote", func(c *Config) { c.Factors.Source = SourceRemote }, "remote_url"},
		{"unknown", func(c *Config) { c.Factors.Source = "oracle" }, "unknown factor source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
