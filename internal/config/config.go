// Package config loads lca settings from an optional YAML file and LCA_*
// environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lca-cli/internal/model"
)

// Factor source names.
const (
	SourceBuiltin  = "builtin"
	SourceTable    = "table"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceRemote   = "remote"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Factors FactorsConfig `yaml:"factors" mapstructure:"factors"`
	Schemas SchemasConfig `yaml:"schemas" mapstructure:"schemas"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the report database. Only sqlite is supported;
// DatabaseURL is the file path.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig holds orchestrator limits.
type BatchConfig struct {
	MaxConcurrentProducts int    `yaml:"max_concurrent_products" mapstructure:"max_concurrent_products"`
	ProductTimeoutSecs    int    `yaml:"product_timeout_secs" mapstructure:"product_timeout_secs"`
	Prewarm               bool   `yaml:"prewarm" mapstructure:"prewarm"`
	PrewarmConcurrency    int    `yaml:"prewarm_concurrency" mapstructure:"prewarm_concurrency"`
	Method                string `yaml:"method" mapstructure:"method"`
}

// FactorsConfig selects and tunes the factor source. Lookups that the
// configured source cannot answer fall through to the built-in estimates
// when Fallback is set.
type FactorsConfig struct {
	Source      string  `yaml:"source" mapstructure:"source"`
	Fallback    bool    `yaml:"fallback" mapstructure:"fallback"`
	TablePath   string  `yaml:"table_path" mapstructure:"table_path"`
	PostgresURL string  `yaml:"postgres_url" mapstructure:"postgres_url"`
	RemoteURL   string  `yaml:"remote_url" mapstructure:"remote_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`

	RetryMaxAttempts      int `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryInitialBackoffMs int `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs     int `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`

	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetTimeoutSecs int `yaml:"circuit_reset_timeout_secs" mapstructure:"circuit_reset_timeout_secs"`
}

// SchemasConfig points at extra schema files.
type SchemasConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration. An empty path searches ./config.yaml, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lca.db")
	v.SetDefault("batch.max_concurrent_products", 10)
	v.SetDefault("batch.product_timeout_secs", 30)
	v.SetDefault("batch.prewarm", true)
	v.SetDefault("batch.prewarm_concurrency", 8)
	v.SetDefault("batch.method", string(model.DefaultMethod))
	v.SetDefault("factors.source", SourceBuiltin)
	v.SetDefault("factors.fallback", true)
	v.SetDefault("factors.table_path", "")
	v.SetDefault("factors.postgres_url", "")
	v.SetDefault("factors.remote_url", "")
	v.SetDefault("factors.api_key", "")
	v.SetDefault("factors.rate_limit", 20.0)
	v.SetDefault("factors.rate_burst", 5)
	v.SetDefault("factors.retry_max_attempts", 3)
	v.SetDefault("factors.retry_initial_backoff_ms", 200)
	v.SetDefault("factors.retry_max_backoff_ms", 5000)
	v.SetDefault("factors.circuit_failure_threshold", 5)
	v.SetDefault("factors.circuit_reset_timeout_secs", 30)
	v.SetDefault("schemas.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.Store.Driver != "sqlite" {
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Batch.MaxConcurrentProducts < 1 {
		return eris.New("config: batch.max_concurrent_products must be at least 1")
	}
	if c.Batch.ProductTimeoutSecs < 1 {
		return eris.New("config: batch.product_timeout_secs must be at least 1")
	}
	if _, err := model.ParseMethod(c.Batch.Method); err != nil {
		return eris.Wrap(err, "config: batch.method")
	}
	switch c.Factors.Source {
	case SourceBuiltin, SourceSQLite:
	case SourceTable:
		if c.Factors.TablePath == "" {
			return eris.New("config: factors.table_path is required for the table source")
		}
	case SourcePostgres:
		if c.Factors.PostgresURL == "" {
			return eris.New("config: factors.postgres_url is required for the postgres source")
		}
	case SourceRemote:
		if c.Factors.RemoteURL == "" {
			return eris.New("config: factors.remote_url is required for the remote source")
		}
	default:
		return eris.Errorf("config: unknown factor source %q", c.Factors.Source)
	}
	return nil
}

// InitLogger builds the global zap logger.
func InitLogger(cfg LogConfig) error {
	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
