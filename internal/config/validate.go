// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.InitTimeout <= 0 {
		return fmt.Errorf("INIT_TIMEOUT must be positive, got %v", c.Server.InitTimeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if err := validateHTTPURL("TMDB_BASE_URL", c.TMDB.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("TMDB_IMAGE_BASE_URL", c.TMDB.ImageBaseURL); err != nil {
		return err
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return fmt.Errorf("TMDB_REQUESTS_PER_SECOND must be positive, got %v", c.TMDB.RequestsPerSecond)
	}
	if c.TMDB.Burst < 1 {
		return fmt.Errorf("TMDB_BURST must be at least 1, got %d", c.TMDB.Burst)
	}
	if c.TMDB.MaxRetries < 0 {
		return fmt.Errorf("TMDB_MAX_RETRIES must be non-negative, got %d", c.TMDB.MaxRetries)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if err := validateHTTPURL("ENCODER_URL", c.Encoder.BaseURL); err != nil {
		return err
	}
	if c.Encoder.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL_NAME is required")
	}
	if c.Encoder.Dimension < 1 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Encoder.Dimension)
	}
	if c.Encoder.BatchSize < 1 || c.Encoder.BatchSize > 1024 {
		return fmt.Errorf("ENCODER_BATCH_SIZE must be between 1 and 1024, got %d", c.Encoder.BatchSize)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	cat := c.Catalog
	if cat.MinInitialize < 1 || cat.MaxInitialize < cat.MinInitialize {
		return fmt.Errorf("catalog initialize bounds invalid: [%d, %d]", cat.MinInitialize, cat.MaxInitialize)
	}
	if cat.InitializeOnStartup && (cat.StartupSize < cat.MinInitialize || cat.StartupSize > cat.MaxInitialize) {
		return fmt.Errorf("CATALOG_STARTUP_SIZE must be between %d and %d, got %d",
			cat.MinInitialize, cat.MaxInitialize, cat.StartupSize)
	}
	if cat.PageCeiling < 1 || cat.PageCeiling > 500 {
		return fmt.Errorf("CATALOG_PAGE_CEILING must be between 1 and 500, got %d", cat.PageCeiling)
	}
	if cat.FetchConcurrency < 1 || cat.FetchConcurrency > 64 {
		return fmt.Errorf("CATALOG_FETCH_CONCURRENCY must be between 1 and 64, got %d", cat.FetchConcurrency)
	}
	if cat.MaxTopK < 1 || cat.DefaultTopK < 1 || cat.DefaultTopK > cat.MaxTopK {
		return fmt.Errorf("recommend top_k limits invalid: default %d, max %d", cat.DefaultTopK, cat.MaxTopK)
	}
	if cat.OverfetchFactor < 1 {
		return fmt.Errorf("catalog.overfetch_factor must be positive, got %d", cat.OverfetchFactor)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Cache.Enabled && c.Cache.DetailTTL < 0 {
		return fmt.Errorf("CACHE_DETAIL_TTL must be non-negative, got %v", c.Cache.DetailTTL)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
		if c.Security.RateLimitDisabled {
			return fmt.Errorf("DISABLE_RATE_LIMIT is not allowed in production")
		}
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}
