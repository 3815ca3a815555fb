// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

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

// ConfigPathEnvVar overrides the default config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is the environment variable prefix stripped before mapping into
// the Config struct, e.g. ATTENTIONMAP_DATABASE__PATH -> database.path.
const EnvPrefix = "ATTENTIONMAP_"

// Load builds a Config by layering, in increasing priority: built-in
// defaults, an optional YAML file, then environment variables. This mirrors
// the teacher's internal/config/koanf.go precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	path := os.Getenv(ConfigPathEnvVar)
	if path == "" {
		path = "config.yaml"
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load config env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret (ATTENTIONMAP_SECURITY__JWT_SECRET) is required")
	}
	if len(cfg.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if cfg.Server.UploadByteCap <= 0 {
		return fmt.Errorf("server.upload_byte_cap must be positive")
	}
	return nil
}
