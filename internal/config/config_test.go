// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaults fail validation: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "no url without embedded server",
			mutate: func(c *Config) {
				c.Transport.Embedded = false
				c.Transport.URL = ""
			},
			wantErr: "url is required",
		},
		{
			name:    "missing stream name",
			mutate:  func(c *Config) { c.Transport.StreamName = "" },
			wantErr: "stream_name",
		},
		{
			name:    "missing subject prefix",
			mutate:  func(c *Config) { c.Transport.SubjectPrefix = "" },
			wantErr: "subject_prefix",
		},
		{
			name:    "zero subscribers",
			mutate:  func(c *Config) { c.Transport.SubscriberCount = 0 },
			wantErr: "subscriber_count",
		},
		{
			name:    "missing store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "store: path",
		},
		{
			name:    "retention below min samples",
			mutate:  func(c *Config) { c.Detect.Retention = 10 },
			wantErr: "below min_samples",
		},
		{
			name: "thresholds not increasing",
			mutate: func(c *Config) {
				c.Detect.MediumThreshold = 3
				c.Detect.HighThreshold = 2
			},
			wantErr: "strictly increasing",
		},
		{
			name:    "negative aggregate interval",
			mutate:  func(c *Config) { c.Aggregate.Interval = 0 },
			wantErr: "interval",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Ops.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "auth token without url",
			mutate:  func(c *Config) { c.Alert.Urgent.AuthToken = "tok" },
			wantErr: "auth_token but no url",
		},
		{
			name: "encrypted token without secret key",
			mutate: func(c *Config) {
				c.Alert.Ticket.URL = "https://hooks.example.com/t"
				c.Alert.Ticket.AuthToken = "enc:AAAA"
			},
			wantErr: "secret_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEncryptedTokenWithSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Alert.SecretKey = "s3cret"
	cfg.Alert.Urgent.URL = "https://hooks.example.com/u"
	cfg.Alert.Urgent.AuthToken = "enc:AAAA"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
