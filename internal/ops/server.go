// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package ops serves the operational HTTP surface: liveness, readiness, and
// Prometheus metrics. It is deliberately tiny; the pipeline has no request
// API.
package ops

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/sentinel/internal/config"
	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/pipeline"
)

// ReadyChecker reports whether a dependency is ready to serve.
type ReadyChecker func() bool

// Server is the ops HTTP server.
type Server struct {
	http *http.Server
}

// NewServer builds the ops server. health supplies the /healthz body; ready
// checkers gate /readyz (all must pass).
func NewServer(cfg config.OpsConfig, health *pipeline.HealthTask, ready ...ReadyChecker) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, health.Report())
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		for _, check := range ready {
			if !check() {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.Handler())

	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      cfg.Timeout,
		},
	}
}

// HTTP returns the underlying server for supervision wiring.
func (s *Server) HTTP() *http.Server {
	return s.http
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("write ops response")
	}
}
