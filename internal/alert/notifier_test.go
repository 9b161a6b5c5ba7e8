// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sentinel/internal/event"
)

func TestWebhookNotifierDelivers(t *testing.T) {
	var gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{
		Name:      "urgent",
		URL:       srv.URL,
		AuthToken: "secret-token",
	})

	a := testAlert(event.SeverityCritical)
	if err := n.Notify(context.Background(), a); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	var decoded Alert
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode webhook body: %v", err)
	}
	if decoded.AlertID != a.AlertID || decoded.Severity != a.Severity {
		t.Errorf("webhook payload = %+v", decoded)
	}
}

func TestWebhookNotifierNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{Name: "urgent", URL: srv.URL})
	err := n.Notify(context.Background(), testAlert(event.SeverityHigh))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want status 500", err)
	}
}

func TestWebhookNotifierUnreachable(t *testing.T) {
	n := NewWebhookNotifier(WebhookConfig{
		Name:    "urgent",
		URL:     "http://127.0.0.1:1/never",
		Timeout: time.Second,
	})
	if err := n.Notify(context.Background(), testAlert(event.SeverityHigh)); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}

func TestWebhookNotifierRateLimited(t *testing.T) {
	var delivered int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		delivered++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// One token, no refill within the test.
	n := NewWebhookNotifier(WebhookConfig{
		Name:          "urgent",
		URL:           srv.URL,
		RatePerSecond: 0.001,
		Burst:         1,
	})

	if err := n.Notify(context.Background(), testAlert(event.SeverityHigh)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	err := n.Notify(context.Background(), testAlert(event.SeverityHigh))
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v, want rate limited", err)
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLogNotifier("standard")
	if n.Name() != "standard" {
		t.Errorf("Name = %s", n.Name())
	}
	if err := n.Notify(context.Background(), testAlert(event.SeverityLow)); err != nil {
		t.Errorf("LogNotifier returned error: %v", err)
	}
}
