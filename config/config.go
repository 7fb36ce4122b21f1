// Package config loads the application settings. Database credentials stay
// in the DB_* environment variables read by helper.NewDatabaseConfiguration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/siherrmann/agrimarket/core/indexer"
	"github.com/siherrmann/agrimarket/core/pipeline"
	"github.com/siherrmann/agrimarket/model"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AGRIMARKET_API_PORT
const EnvPrefix = "AGRIMARKET"

// Config is the application configuration
type Config struct {
	API       APIConfig             `mapstructure:"api"       yaml:"api"`
	Retrieval model.RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`
	Indexer   IndexerConfig         `mapstructure:"indexer"   yaml:"indexer"`
	Embedding EmbeddingConfig       `mapstructure:"embedding" yaml:"embedding"`
	Logging   LoggingConfig         `mapstructure:"logging"   yaml:"logging"`
}

type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr is the listen address of the HTTP server
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type IndexerConfig struct {
	Schedule     string `mapstructure:"schedule"      yaml:"schedule"` // cron expression, empty disables scheduling
	OnStart      bool   `mapstructure:"on_start"      yaml:"on_start"`
	BatchSize    int    `mapstructure:"batch_size"    yaml:"batch_size"`
	ChunkSize    int    `mapstructure:"chunk_size"    yaml:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" yaml:"chunk_overlap"`
}

type EmbeddingConfig struct {
	Model     string `mapstructure:"model"     yaml:"model"`
	Dimension int    `mapstructure:"dimension" yaml:"dimension"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// Load reads config.yaml from ./config, ./ or /etc/agrimarket if present,
// on top of the defaults, and applies AGRIMARKET_* environment overrides.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/agrimarket")

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads the configuration from path
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_origins", []string{"*"})

	r := model.DefaultRetrievalConfig()
	v.SetDefault("retrieval.summary_limit", r.SummaryLimit)
	v.SetDefault("retrieval.news_limit", r.NewsLimit)
	v.SetDefault("retrieval.price_limit", r.PriceLimit)
	v.SetDefault("retrieval.window_days", r.WindowDays)
	v.SetDefault("retrieval.top_k", r.TopK)
	v.SetDefault("retrieval.fetch_k", r.FetchK)
	v.SetDefault("retrieval.mmr_lambda", r.MMRLambda)

	v.SetDefault("indexer.schedule", indexer.DefaultSchedule)
	v.SetDefault("indexer.on_start", true)
	v.SetDefault("indexer.batch_size", indexer.DefaultBatchSize)
	v.SetDefault("indexer.chunk_size", 1000)
	v.SetDefault("indexer.chunk_overlap", 200)

	v.SetDefault("embedding.model", pipeline.DefaultModel)
	v.SetDefault("embedding.dimension", pipeline.DefaultDimension)

	v.SetDefault("logging.level", "info")
}

// Validate checks the values a misconfiguration would make meaningless
func (c *Config) Validate() error {
	switch {
	case c.API.Port <= 0 || c.API.Port > 65535:
		return fmt.Errorf("invalid api.port %d", c.API.Port)
	case c.Retrieval.WindowDays < 1:
		return fmt.Errorf("retrieval.window_days must be at least 1, got %d", c.Retrieval.WindowDays)
	case c.Retrieval.MMRLambda < 0 || c.Retrieval.MMRLambda > 1:
		return fmt.Errorf("retrieval.mmr_lambda must be between 0 and 1, got %v", c.Retrieval.MMRLambda)
	case c.Indexer.ChunkOverlap >= c.Indexer.ChunkSize:
		return fmt.Errorf("indexer.chunk_overlap (%d) must be smaller than indexer.chunk_size (%d)", c.Indexer.ChunkOverlap, c.Indexer.ChunkSize)
	case c.Indexer.Schedule != "" && indexer.ValidateSchedule(c.Indexer.Schedule) != nil:
		return fmt.Errorf("invalid indexer.schedule %q", c.Indexer.Schedule)
	case c.Embedding.Dimension <= 0:
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	return nil
}
