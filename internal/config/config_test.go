// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears every mapped variable so the host environment cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	for key := range envMappings {
		t.Setenv(strings.ToUpper(key), "")
		if err := os.Unsetenv(strings.ToUpper(key)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.TMDB.Language != "fr-FR" {
		t.Errorf("TMDB.Language = %q, want fr-FR", cfg.TMDB.Language)
	}
	if cfg.Encoder.Dimension != 384 {
		t.Errorf("Encoder.Dimension = %d, want 384", cfg.Encoder.Dimension)
	}
	if cfg.Catalog.FetchConcurrency != 8 || cfg.Catalog.PageCeiling != 500 {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Cache.DetailTTL != 7*24*time.Hour {
		t.Errorf("Cache.DetailTTL = %v, want 168h", cfg.Cache.DetailTTL)
	}
	if cfg.TMDB.APIKey != "" {
		t.Error("TMDB.APIKey should be empty by default")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"TMDB_API_KEY", "tmdb.api_key"},
		{"HTTP_PORT", "server.port"},
		{"ENCODER_URL", "encoder.base_url"},
		{"EMBEDDING_DIMENSION", "encoder.dimension"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_VAR", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("TMDB_API_KEY", "token-123")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_DETAIL_TTL", "24h")
	t.Setenv("CATALOG_FETCH_CONCURRENCY", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDB.APIKey != "token-123" {
		t.Errorf("TMDB.APIKey = %q", cfg.TMDB.APIKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Cache.DetailTTL != 24*time.Hour {
		t.Errorf("Cache.DetailTTL = %v, want 24h", cfg.Cache.DetailTTL)
	}
	if cfg.Catalog.FetchConcurrency != 4 {
		t.Errorf("Catalog.FetchConcurrency = %d, want 4", cfg.Catalog.FetchConcurrency)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	isolate(t)

	content := `
tmdb:
  api_key: "from-file"
  language: "en-US"
server:
  port: 8888
encoder:
  base_url: "http://tei:80"
  dimension: 768
logging:
  level: "warn"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDB.APIKey != "from-file" || cfg.TMDB.Language != "en-US" {
		t.Errorf("TMDB = %+v", cfg.TMDB)
	}
	if cfg.Encoder.Dimension != 768 || cfg.Encoder.BaseURL != "http://tei:80" {
		t.Errorf("Encoder = %+v", cfg.Encoder)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Storage.DataDir != "./data" {
		t.Errorf("Storage.DataDir = %q, want default", cfg.Storage.DataDir)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	isolate(t)

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TMDB_API_KEY") {
		t.Errorf("Load() error = %v, want TMDB_API_KEY error", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.TMDB.APIKey = "k"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad environment", func(c *Config) { c.Server.Environment = "qa" }, "ENVIRONMENT"},
		{"bad tmdb url", func(c *Config) { c.TMDB.BaseURL = "ftp://x" }, "TMDB_BASE_URL"},
		{"zero rps", func(c *Config) { c.TMDB.RequestsPerSecond = 0 }, "TMDB_REQUESTS_PER_SECOND"},
		{"bad encoder url", func(c *Config) { c.Encoder.BaseURL = "" }, "ENCODER_URL"},
		{"zero dimension", func(c *Config) { c.Encoder.Dimension = 0 }, "EMBEDDING_DIMENSION"},
		{"startup size out of range", func(c *Config) {
			c.Catalog.InitializeOnStartup = true
			c.Catalog.StartupSize = 50
		}, "CATALOG_STARTUP_SIZE"},
		{"startup size ignored when disabled", func(c *Config) { c.Catalog.StartupSize = 50 }, ""},
		{"page ceiling", func(c *Config) { c.Catalog.PageCeiling = 501 }, "CATALOG_PAGE_CEILING"},
		{"concurrency", func(c *Config) { c.Catalog.FetchConcurrency = 0 }, "CATALOG_FETCH_CONCURRENCY"},
		{"top k", func(c *Config) { c.Catalog.DefaultTopK = 60 }, "top_k"},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = " " }, "DATA_DIR"},
		{"rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQS"},
		{"rate limit disabled", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"*"}
		}, "CORS_ORIGINS"},
		{"wildcard cors in development", func(c *Config) { c.Security.CORSOrigins = []string{"*"} }, ""},
		{"rate limit disabled in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.RateLimitDisabled = true
		}, "DISABLE_RATE_LIMIT"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestCacheResolvedPath(t *testing.T) {
	c := CacheConfig{}
	if got := c.ResolvedPath("/var/lib/reelscope"); got != filepath.Join("/var/lib/reelscope", "detail-cache") {
		t.Errorf("ResolvedPath() = %q", got)
	}
	c.Path = "/cache"
	if got := c.ResolvedPath("/var/lib/reelscope"); got != "/cache" {
		t.Errorf("ResolvedPath() = %q, want /cache", got)
	}
}
