// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/projectmap/geocoding"
	"github.com/jcodagnone/projectmap/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the variables Load reads so the host environment does not
// leak into the tests.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")

		if _, ok := wellKnownEnv[name]; ok || strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	want := &Config{
		Server:  ServerConfig{Addr: "localhost:8080", ShutdownTimeout: 10 * time.Second},
		Storage: StorageConfig{Driver: DriverDuckDB, Path: "data/projects.duckdb"},
		Geocoding: GeocodingConfig{
			Endpoint:       geocoding.DefaultEndpoint,
			Timeout:        600 * time.Second,
			KeyDisplayName: geocoding.DefaultKeyDisplayName,
		},
		Log: logging.Config{Level: "info", Format: logging.FormatConsole},
	}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("load() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, want, Default())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "projectmap.yaml", `
server:
  addr: 0.0.0.0:9000
geocoding:
  api_key: from-file
  timeout: 30s
  trace: true
log:
  format: json
`)

	t.Setenv("GOOGLE_MAPS_API_KEY", "from-well-known")
	t.Setenv("PROJECTMAP_SERVER_ADDR", ":7000")
	t.Setenv("PROJECTMAP_LOG_LEVEL", "debug")
	t.Setenv("PROJECTMAP_GEOCODING_KEY_FROM_ADC", "true")

	cfg, err := load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "from-well-known", cfg.Geocoding.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Geocoding.Timeout)
	assert.True(t, cfg.Geocoding.Trace)
	assert.True(t, cfg.Geocoding.KeyFromADC)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)

	t.Setenv("PROJECTMAP_GEOCODING_API_KEY", "from-prefixed")

	cfg, err = load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed", cfg.Geocoding.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	envFile := writeFile(t, ".env", "DATABASE_URL=postgres://localhost/projects\nPROJECTMAP_STORAGE_DRIVER=postgres\n")

	// .env values end up in the process environment
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("PROJECTMAP_STORAGE_DRIVER")
	})

	cfg, err := load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/projects", cfg.Storage.DSN)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	missingEnv := filepath.Join(t.TempDir(), "missing.env")

	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), missingEnv)
	assert.Error(t, err)

	_, err = load(writeFile(t, "bad.yaml", "server: [unclosed"), missingEnv)
	assert.Error(t, err)

	t.Setenv("PROJECTMAP_STORAGE_DRIVER", "sqlite")
	_, err = load("", missingEnv)
	assert.ErrorContains(t, err, "unknown storage driver")

	t.Setenv("PROJECTMAP_STORAGE_DRIVER", "postgres")
	_, err = load("", missingEnv)
	assert.ErrorContains(t, err, "storage.dsn")
}
