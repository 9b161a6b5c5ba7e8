// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sentinel/config.yaml",
	"/etc/sentinel/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "SENTINEL_CONFIG_PATH"

// envPrefix namespaces all configuration environment variables.
const envPrefix = "SENTINEL_"

// Load builds configuration from three layers, lowest priority first:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. SENTINEL_* environment variables
//
// SENTINEL_TRANSPORT_URL maps to transport.url, SENTINEL_DETECT_MIN_SAMPLES
// to detect.min_samples, and so on.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config path, or empty.
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

// configSections are the top-level koanf keys; the first env var token that
// matches one becomes the section, the rest stays underscored:
// SENTINEL_DETECT_MIN_SAMPLES -> detect.min_samples.
var configSections = []string{
	"transport", "store", "detect", "aggregate", "alert", "ops", "logging",
}

// alertChannels get one extra path level so
// SENTINEL_ALERT_URGENT_AUTH_TOKEN maps to alert.urgent.auth_token.
var alertChannels = []string{"urgent", "standard", "ticket"}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	for _, section := range configSections {
		if !strings.HasPrefix(key, section+"_") {
			continue
		}
		rest := key[len(section)+1:]

		if section == "alert" {
			for _, ch := range alertChannels {
				if strings.HasPrefix(rest, ch+"_") {
					return section + "." + ch + "." + rest[len(ch)+1:]
				}
			}
		}
		return section + "." + rest
	}

	// Unknown variables are dropped rather than polluting the tree.
	return ""
}
