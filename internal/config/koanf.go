// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelscope/config.yaml",
	"/etc/reelscope/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Timeout:         30 * time.Second,
			InitTimeout:     2 * time.Hour,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p/w500",
			Language:          "fr-FR",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 40,
			Burst:             20,
			MaxRetries:        3,
			RetryDelay:        time.Second,
		},
		Encoder: EncoderConfig{
			BaseURL:   "http://localhost:8080",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
			Dimension: 384,
			Timeout:   60 * time.Second,
			BatchSize: 32,
		},
		Catalog: CatalogConfig{
			InitializeOnStartup: false,
			StartupSize:         500,
			PageCeiling:         500,
			FetchConcurrency:    8,
			DefaultTopK:         10,
			MaxTopK:             50,
			OverfetchFactor:     2,
			MinInitialize:       100,
			MaxInitialize:       10000,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Cache: CacheConfig{
			Enabled:   true,
			DetailTTL: 7 * 24 * time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads defaults, the optional config file and environment variables,
// in that order of increasing precedence, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TMDB_API_KEY -> tmdb.api_key, HTTP_PORT -> server.port, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"host":             "server.host",
	"http_port":        "server.port",
	"port":             "server.port",
	"server_timeout":   "server.timeout",
	"init_timeout":     "server.init_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"tmdb_api_key":             "tmdb.api_key",
	"tmdb_base_url":            "tmdb.base_url",
	"tmdb_image_base_url":      "tmdb.image_base_url",
	"tmdb_language":            "tmdb.language",
	"tmdb_timeout":             "tmdb.timeout",
	"tmdb_requests_per_second": "tmdb.requests_per_second",
	"tmdb_burst":               "tmdb.burst",
	"tmdb_max_retries":         "tmdb.max_retries",

	"encoder_url":          "encoder.base_url",
	"encoder_api_key":      "encoder.api_key",
	"embedding_model_name": "encoder.model",
	"embedding_dimension":  "encoder.dimension",
	"encoder_timeout":      "encoder.timeout",
	"encoder_batch_size":   "encoder.batch_size",

	"catalog_initialize_on_startup": "catalog.initialize_on_startup",
	"catalog_startup_size":          "catalog.startup_size",
	"catalog_page_ceiling":          "catalog.page_ceiling",
	"catalog_fetch_concurrency":     "catalog.fetch_concurrency",
	"recommend_default_top_k":       "catalog.default_top_k",
	"recommend_max_top_k":           "catalog.max_top_k",

	"data_dir": "storage.data_dir",

	"cache_enabled":    "cache.enabled",
	"cache_path":       "cache.path",
	"cache_detail_ttl": "cache.detail_ttl",

	"cors_origins":       "security.cors_origins",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
