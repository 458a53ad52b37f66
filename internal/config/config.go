// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Encoder  EncoderConfig  `koanf:"encoder"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Storage  StorageConfig  `koanf:"storage"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	InitTimeout     time.Duration `koanf:"init_timeout"` // bound on a catalog initialization run
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TMDBConfig holds The Movie Database API settings.
type TMDBConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	ImageBaseURL      string        `koanf:"image_base_url"`
	Language          string        `koanf:"language"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	MaxRetries        int           `koanf:"max_retries"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
}

// EncoderConfig holds embedding server settings.
type EncoderConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Model     string        `koanf:"model"`
	APIKey    string        `koanf:"api_key"`
	Dimension int           `koanf:"dimension"`
	Timeout   time.Duration `koanf:"timeout"`
	BatchSize int           `koanf:"batch_size"`
}

// CatalogConfig holds ingestion and recommendation limits.
type CatalogConfig struct {
	InitializeOnStartup bool `koanf:"initialize_on_startup"`
	StartupSize         int  `koanf:"startup_size"`
	PageCeiling         int  `koanf:"page_ceiling"`
	FetchConcurrency    int  `koanf:"fetch_concurrency"`
	DefaultTopK         int  `koanf:"default_top_k"`
	MaxTopK             int  `koanf:"max_top_k"`
	OverfetchFactor     int  `koanf:"overfetch_factor"`
	MinInitialize       int  `koanf:"min_initialize"`
	MaxInitialize       int  `koanf:"max_initialize"`
}

// StorageConfig holds snapshot persistence settings.
type StorageConfig struct {
	DataDir string `koanf:"data_dir"`
}

// CacheConfig holds the BadgerDB detail cache settings.
type CacheConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Path      string        `koanf:"path"` // defaults to <data_dir>/detail-cache
	DetailTTL time.Duration `koanf:"detail_ttl"`
}

// ResolvedPath returns Path, or a directory under dataDir when Path is unset.
func (c CacheConfig) ResolvedPath(dataDir string) string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(dataDir, "detail-cache")
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
