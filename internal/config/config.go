// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Lake   LakeConfig   `yaml:"lake" mapstructure:"lake"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Silver SilverConfig `yaml:"silver" mapstructure:"silver"`
	Gold   GoldConfig   `yaml:"gold" mapstructure:"gold"`
	Kol    KolConfig    `yaml:"kol" mapstructure:"kol"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// LakeConfig locates the partitioned data lake on disk.
type LakeConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// IngestConfig configures the Bronze ingestion stage.
type IngestConfig struct {
	Archive   string `yaml:"archive" mapstructure:"archive"`
	ChunkRows int    `yaml:"chunk_rows" mapstructure:"chunk_rows"`
	Compress  bool   `yaml:"compress" mapstructure:"compress"`
}

// SilverConfig configures the normalization stage.
type SilverConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// GoldConfig configures the aggregation stage.
type GoldConfig struct {
	// DefaultMedianPrice is the revenue-proxy constant used when no item
	// has a resolved price anywhere in the lake.
	DefaultMedianPrice float64 `yaml:"default_median_price" mapstructure:"default_median_price"`
}

// KolConfig configures the synthetic attribution engine.
type KolConfig struct {
	Seed       int64   `yaml:"seed" mapstructure:"seed"`
	Creators   int     `yaml:"creators" mapstructure:"creators"`
	NoiseSigma float64 `yaml:"noise_sigma" mapstructure:"noise_sigma"`
}

// StoreConfig configures the gold-table publication target.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("lake.root", "data/lake")
	v.SetDefault("ingest.archive", "data/raw_master/retailrocket.zip")
	v.SetDefault("ingest.chunk_rows", 250000)
	v.SetDefault("ingest.compress", true)
	v.SetDefault("silver.workers", 4)
	v.SetDefault("gold.default_median_price", 100.0)
	v.SetDefault("kol.seed", 42)
	v.SetDefault("kol.creators", 12)
	v.SetDefault("kol.noise_sigma", 0.05)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/lake/gold/metrics.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings required by the given stage.
func (c *Config) Validate(stage string) error {
	if c.Lake.Root == "" {
		return eris.New("config: lake.root is required")
	}
	switch stage {
	case "ingest":
		if c.Ingest.Archive == "" {
			return eris.New("config: ingest.archive is required")
		}
		if c.Ingest.ChunkRows <= 0 {
			return eris.Errorf("config: ingest.chunk_rows must be positive (got %d)", c.Ingest.ChunkRows)
		}
	case "kol":
		if c.Kol.Creators <= 0 {
			return eris.Errorf("config: kol.creators must be positive (got %d)", c.Kol.Creators)
		}
		if c.Kol.NoiseSigma < 0 {
			return eris.Errorf("config: kol.noise_sigma must be non-negative (got %f)", c.Kol.NoiseSigma)
		}
	case "publish":
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				return eris.New("config: store.path is required for the sqlite driver")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				return eris.New("config: store.database_url is required for the postgres driver")
			}
		default:
			return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
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
