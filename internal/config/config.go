package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	Primary       Primary              `koanf:"primary"`
	Server        ServerConfig         `koanf:"server"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Logging       LoggingConfig        `koanf:"logging"`
	Archive       *ArchiveConfig       `koanf:"archive"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env"`
}

type ServerConfig struct {
	Port         string `koanf:"port"`
	ReadTimeout  int    `koanf:"readtimeout"`
	WriteTimeout int    `koanf:"writetimeout"`
	IdleTimeout  int    `koanf:"idletimeout"`
	CORSOrigins  string `koanf:"corsorigins"`
}

// AllowedOrigins returns the comma-separated CORS origins as a slice.
func (s ServerConfig) AllowedOrigins() []string {
	if s.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(s.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type DatabaseConfig struct {
	URL      string `koanf:"url" validate:"required"`
	MaxConns int32  `koanf:"maxconns"`
	MinConns int32  `koanf:"minconns"`
}

// LoggingConfig carries the remote-sink settings. An empty token disables
// the remote destination (console-only fallback).
type LoggingConfig struct {
	Token    string `koanf:"token"`
	Dataset  string `koanf:"dataset"`
	Endpoint string `koanf:"endpoint"`
}

// ArchiveConfig points the archive log sink at an S3-compatible store.
// Nil (or missing endpoint/bucket) disables archiving.
type ArchiveConfig struct {
	Endpoint  string `koanf:"endpoint"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"accesskey"`
	SecretKey string `koanf:"secretkey"`
	Region    string `koanf:"region"`
}

// Load resolves the configuration from ITEMSTORE_-prefixed environment
// variables exactly once at startup. Defaults are applied (with a warning
// for the ones operators usually mean to set) before validation.
func Load() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")
	err := k.Load(env.Provider("ITEMSTORE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "ITEMSTORE_")), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Primary.Env == "" {
		cfg.Primary.Env = "development"
		logger.Warn().Msg("ITEMSTORE_PRIMARY_ENV not set, defaulting environment to development")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Token == "" {
		logger.Warn().Msg("remote logging token not set, remote log sink disabled (console only)")
	} else if cfg.Logging.Dataset == "" {
		cfg.Logging.Dataset = "itemstore-dev"
		logger.Warn().Msg("remote logging dataset not set, falling back to itemstore-dev")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}
	cfg.Observability.ServiceName = "itemstore"
	cfg.Observability.Environment = cfg.Primary.Env
	if err := cfg.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return cfg, nil
}
