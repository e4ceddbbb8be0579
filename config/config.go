// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads projectmap settings from defaults, an optional YAML
// file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/projectmap/geocoding"
	"github.com/jcodagnone/projectmap/logging"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes the environment variables mapped onto configuration
// keys: PROJECTMAP_SERVER_ADDR sets server.addr.
const EnvPrefix = "PROJECTMAP_"

// Storage drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Config is the complete projectmap configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Geocoding GeocodingConfig `koanf:"geocoding"`
	Log       logging.Config  `koanf:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig selects the project store.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	// Path is the DuckDB database file.
	Path string `koanf:"path"`
	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn"`
}

// GeocodingConfig configures the Google Maps geocoder.
type GeocodingConfig struct {
	APIKey   string        `koanf:"api_key"`
	Endpoint string        `koanf:"endpoint"`
	Timeout  time.Duration `koanf:"timeout"`
	// Trace dumps provider requests and responses to stderr.
	Trace bool `koanf:"trace"`
	// KeyFromADC looks the API key up with Application Default Credentials
	// when APIKey is empty.
	KeyFromADC     bool   `koanf:"key_from_adc"`
	ProjectID      string `koanf:"project_id"`
	KeyDisplayName string `koanf:"key_display_name"`
}

// wellKnownEnv maps conventional variable names onto configuration keys.
var wellKnownEnv = map[string]string{
	"GOOGLE_MAPS_API_KEY": "geocoding.api_key",
	"DATABASE_URL":        "storage.dsn",
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration. Precedence, highest first:
//  1. PROJECTMAP_<SECTION>_<KEY> environment variables
//  2. GOOGLE_MAPS_API_KEY and DATABASE_URL
//  3. the YAML file at path, when path is not empty
//  4. defaults
//
// Variables in a .env file in the working directory are added to the
// environment first, without overriding those already set.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return wellKnownEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	// PROJECTMAP_GEOCODING_API_KEY -> geocoding.api_key
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		section, field, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_")
		if !ok {
			return ""
		}

		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "localhost:8080"
	}

	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverDuckDB
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/projects.duckdb"
	}

	if cfg.Geocoding.Endpoint == "" {
		cfg.Geocoding.Endpoint = geocoding.DefaultEndpoint
	}

	if cfg.Geocoding.Timeout == 0 {
		cfg.Geocoding.Timeout = geocoding.DefaultTimeout
	}

	if cfg.Geocoding.KeyDisplayName == "" {
		cfg.Geocoding.KeyDisplayName = geocoding.DefaultKeyDisplayName
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = logging.FormatConsole
	}
}

// Validate checks the configuration is usable. A missing API key is not an
// error: the provider rejects the requests instead.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverDuckDB:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn (DATABASE_URL) is required by the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Geocoding.Timeout < 0 {
		return fmt.Errorf("geocoding.timeout must not be negative, got %s", c.Geocoding.Timeout)
	}

	return c.Log.Validate()
}
