// Reelscope - Semantic Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelscope

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the data of GET /health.
type HealthStatus struct {
	// Status is "healthy", or "degraded" when a circuit breaker is open or
	// the last snapshot load failed.
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	CatalogReady  bool              `json:"catalog_ready"`
	ItemCount     int               `json:"item_count"`
	Initializing  bool              `json:"initializing"`
	Breakers      map[string]string `json:"breakers,omitempty"`
	LoadError     string            `json:"load_error,omitempty"`
	UptimeSeconds float64           `json:"uptime_seconds"`
}

// Health handles GET /health. It always answers 200; readiness is reported
// by /health/ready.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()

	health := HealthStatus{
		Status:        "healthy",
		Version:       h.config.Version,
		CatalogReady:  st.IndexReady,
		ItemCount:     st.ItemCount,
		Initializing:  st.Initializing,
		LoadError:     st.LoadError,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if st.LoadError != "" {
		health.Status = "degraded"
	}

	if len(h.breakers) > 0 {
		health.Breakers = make(map[string]string, len(h.breakers))
		for name, b := range h.breakers {
			state := b.State()
			health.Breakers[name] = state
			if state == "open" {
				health.Status = "degraded"
			}
		}
	}

	respondData(w, r, health)
}

// HealthLive handles GET /health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, map[string]string{"status": "alive"})
}

// HealthReady handles GET /health/ready: 200 once a catalog is servable,
// 503 CATALOG_NOT_READY before.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()
	if !st.IndexReady {
		respondError(w, r, http.StatusServiceUnavailable, CodeCatalogNotReady, "The movie catalog is not initialized yet", nil)
		return
	}
	respondData(w, r, map[string]interface{}{"status": "ready", "item_count": st.ItemCount})
}
