// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package config loads Reelscope configuration with koanf.
//
// Sources are layered, later layers winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
//     /etc/reelscope/config.yaml
//  3. Environment variables from an explicit table (TMDB_API_KEY,
//     ENCODER_URL, HTTP_PORT, ...). Unknown variables are ignored.
//
// Only TMDB_API_KEY is required. The returned Config is validated and is
// safe for concurrent reads.
package config
