// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/sentinel/internal/logging"
)

// Notifier delivers one alert to one channel endpoint.
type Notifier interface {
	// Notify sends the alert. A returned error marks the channel attempt
	// failed in the alert record; it never aborts the other channels.
	Notify(ctx context.Context, a Alert) error

	// Name identifies the notifier in logs, metrics, and alert records.
	Name() string
}

// WebhookConfig configures one outbound webhook target.
type WebhookConfig struct {
	// Name labels the notifier, usually the channel it serves.
	Name string

	// URL is the webhook endpoint.
	URL string

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string

	// Timeout bounds each delivery attempt. Defaults to 10s.
	Timeout time.Duration

	// RatePerSecond caps outbound deliveries; bursts up to Burst are allowed.
	// Zero disables rate limiting.
	RatePerSecond float64
	Burst         int
}

// WebhookNotifier posts alerts as JSON to an HTTP endpoint. Deliveries are
// rate limited so an alert storm degrades to dropped notifications, not a
// hammered receiver; the alert record still captures every finding.
type WebhookNotifier struct {
	name    string
	url     string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhookNotifier creates a webhook notifier from config.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &WebhookNotifier{
		name:    cfg.Name,
		url:     cfg.URL,
		token:   cfg.AuthToken,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Name returns the configured notifier name.
func (n *WebhookNotifier) Name() string {
	return n.name
}

// Notify posts the alert. A non-2xx response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, a Alert) error {
	if n.limiter != nil && !n.limiter.Allow() {
		return fmt.Errorf("webhook %s: rate limited", n.name)
	}

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("webhook %s: marshal alert: %w", n.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: build request: %w", n.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: deliver: %w", n.name, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: status %d", n.name, resp.StatusCode)
	}
	return nil
}

// LogNotifier writes alerts to the structured log. It is the default target
// for channels with no webhook configured, so dispatch behavior stays
// observable in development and single-instance deployments.
type LogNotifier struct {
	name string
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(name string) *LogNotifier {
	return &LogNotifier{name: name}
}

// Name returns the configured notifier name.
func (n *LogNotifier) Name() string {
	return n.name
}

// Notify logs the alert at warn level. It never fails.
func (n *LogNotifier) Notify(ctx context.Context, a Alert) error {
	logging.Ctx(ctx).Warn().
		Str("channel", n.name).
		Str("alert_id", a.AlertID).
		Str("tenant_id", a.TenantID).
		Str("severity", string(a.Severity)).
		Str("source", a.Source).
		Str("title", a.Title).
		Msg("alert")
	return nil
}
