// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package ops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sentinel/internal/aggregate"
	"github.com/tomtom215/sentinel/internal/alert"
	"github.com/tomtom215/sentinel/internal/baseline"
	"github.com/tomtom215/sentinel/internal/classify"
	"github.com/tomtom215/sentinel/internal/config"
	"github.com/tomtom215/sentinel/internal/pipeline"
	"github.com/tomtom215/sentinel/internal/store"
)

type nopObjectStore struct{}

func (nopObjectStore) Put(_ context.Context, _ store.Object) error { return nil }
func (nopObjectStore) Close() error                                { return nil }

type nopRecordStore struct{}

func (nopRecordStore) Upsert(_ context.Context, _ alert.Record) error { return nil }
func (nopRecordStore) Get(_ context.Context, _ string) (alert.Record, error) {
	return alert.Record{}, alert.ErrRecordNotFound
}

func newTestServer(t *testing.T, ready ...ReadyChecker) *Server {
	t.Helper()

	baselines := baseline.NewStore(baseline.DefaultConfig())
	detector := baseline.NewDetector(baselines, baseline.DefaultThresholds())
	windows := aggregate.NewWindowSet(nil)
	dispatcher := alert.NewDispatcher(nopRecordStore{}, nil, nil)

	proc, err := pipeline.NewProcessor(classify.NewClassifier(), baselines, detector, windows, nopObjectStore{}, dispatcher, "ops-test")
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	health := pipeline.NewHealthTask(proc, windows, time.Minute)

	cfg := config.OpsConfig{
		Host:            "127.0.0.1",
		Port:            8090,
		Timeout:         5 * time.Second,
		RateLimitReqs:   100,
		RateLimitWindow: time.Minute,
	}
	return NewServer(cfg, health, ready...)
}

func TestHealthzEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.HTTP().Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %s", ct)
	}

	var report pipeline.HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if report.Status != "healthy" {
		t.Errorf("Status = %s", report.Status)
	}
}

func TestReadyzEndpoint(t *testing.T) {
	ready := true
	srv := newTestServer(t, func() bool { return ready })

	check := func(wantStatus int) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		srv.HTTP().Handler.ServeHTTP(rec, req)
		if rec.Code != wantStatus {
			t.Errorf("status = %d, want %d", rec.Code, wantStatus)
		}
	}

	check(http.StatusOK)
	ready = false
	check(http.StatusServiceUnavailable)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.HTTP().Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing standard collectors")
	}
}

func TestServerAddr(t *testing.T) {
	srv := newTestServer(t)
	if srv.HTTP().Addr != "127.0.0.1:8090" {
		t.Errorf("Addr = %s", srv.HTTP().Addr)
	}
}
