// Package config loads posterior settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, variables from
// an optional .env file, then the process environment. The result is
// validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config holds all settings.
type Config struct {
	// Database is the SQLite run archive.
	Database string `yaml:"database" env:"POSTERIOR_DB" validate:"required"`

	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Summary SummaryConfig `yaml:"summary"`
}

// CacheConfig configures the summary cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" env:"POSTERIOR_CACHE_ENABLED"`
	Dir      string        `yaml:"dir" env:"POSTERIOR_CACHE_DIR" validate:"required_without=InMemory"`
	InMemory bool          `yaml:"in_memory" env:"POSTERIOR_CACHE_IN_MEMORY"`
	TTL      time.Duration `yaml:"ttl" env:"POSTERIOR_CACHE_TTL" validate:"gte=0"`
}

// ServerConfig configures `posterior serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"POSTERIOR_ADDR" validate:"required,hostname_port"`
}

// SummaryConfig holds summary defaults.
type SummaryConfig struct {
	HDIProb float64 `yaml:"hdi_prob" env:"POSTERIOR_HDI_PROB" validate:"gt=0,lt=1"`
	RoundTo int     `yaml:"round_to" env:"POSTERIOR_ROUND_TO" validate:"gte=0,lte=12"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database: "posterior.db",
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".posterior-cache",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Summary: SummaryConfig{
			HDIProb: 0.94,
			RoundTo: 2,
		},
	}
}

// Load builds a Config. path is the YAML file and may be empty; envFile is a
// dotenv file whose absence is not an error. Variables already present in
// the environment win over envFile.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML rejects unknown keys so typos surface instead of being ignored.
func decodeYAML(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
