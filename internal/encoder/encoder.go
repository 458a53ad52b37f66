// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

// Package encoder turns movie text into unit-length sentence embeddings by
// calling an OpenAI-compatible embeddings endpoint (text-embeddings-inference,
// Ollama, LocalAI, or a hosted API serving all-MiniLM-L6-v2 or similar).
//
// Every vector returned is L2-normalized and has exactly the configured
// dimension; anything else is an error.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var (
	// ErrDimensionMismatch is returned when the server returns a vector of the wrong length.
	ErrDimensionMismatch = errors.New("encoder: embedding dimension mismatch")

	// ErrZeroVector is returned when an embedding cannot be normalized.
	ErrZeroVector = errors.New("encoder: zero-norm embedding")
)

// Encoder produces one embedding per text.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// BatchEncoder embeds many texts in one call. Output order matches input.
type BatchEncoder interface {
	Encoder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config configures an HTTPEncoder.
type Config struct {
	BaseURL   string
	Model     string
	APIKey    string
	Dimension int
	Timeout   time.Duration
}

// HTTPEncoder calls POST {BaseURL}/v1/embeddings.
type HTTPEncoder struct {
	baseURL    string
	model      string
	apiKey     string
	dim        int
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ BatchEncoder = (*HTTPEncoder)(nil)

// NewHTTPEncoder returns an encoder for cfg.
//
//nolint:gocritic // config and logger are copied once at construction
func NewHTTPEncoder(cfg Config, logger zerolog.Logger) *HTTPEncoder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPEncoder{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		dim:        cfg.Dimension,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "encoder").Logger(),
	}
}

// Dimension returns the configured embedding dimension.
func (e *HTTPEncoder) Dimension() int { return e.dim }

// Model returns the configured model name.
func (e *HTTPEncoder) Model() string { return e.model }

// Embed embeds a single text.
func (e *HTTPEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

// EmbedBatch embeds texts in one request.
func (e *HTTPEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // response fully consumed

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort error context
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, msg)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d vectors for %d inputs", len(parsed.Data), len(texts))
	}

	sort.SliceStable(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })

	out := make([][]float32, len(texts))
	for i, d := range parsed.Data {
		if e.dim > 0 && len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(d.Embedding), e.dim)
		}
		v, err := Normalize(d.Embedding)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		out[i] = v
	}

	e.logger.Debug().
		Int("inputs", len(texts)).
		Dur("duration", time.Since(start)).
		Msg("Embeddings generated")
	return out, nil
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm <= 1e-12 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, ErrZeroVector
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}
