// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (Gateway, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the portal is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/sigepsi/portal/pkg/slice"
)

// # Configuration Schema

// Config holds all runtime configuration for the SIGEPSI portal.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// GatewayBaseURL is the base URL of the records backend. All auth and
	// resource endpoints are resolved relative to it.
	GatewayBaseURL string `env:"GATEWAY_BASE_URL,required"`

	// Key-Value store for persisted session tokens (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// ExtraOrigins is a comma-separated allow-list for CORS in production.
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// The gateway URL is joined with endpoint paths; a trailing slash would
	// produce double slashes in every outbound request.
	cfg.GatewayBaseURL = strings.TrimRight(cfg.GatewayBaseURL, "/")

	return cfg, nil
}

// IsDevelopment reports whether the portal is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the portal is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the parsed CORS origin allow-list.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	trimmed := slice.Map(strings.Split(c.ExtraOrigins, ","), strings.TrimSpace)
	return slice.Filter(trimmed, func(origin string) bool { return origin != "" })
}
