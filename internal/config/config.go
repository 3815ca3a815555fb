// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package config loads server configuration via Koanf v2, layering a
// struct of defaults, an optional YAML file, and environment variable
// overrides — the same precedence order as the teacher's
// internal/config/koanf.go.
package config

import "time"

// Config is the root configuration object, grouping one struct per
// subsystem named in SPEC_FULL.md §6 "Environment".
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	ObjectStore ObjectStoreConfig `koanf:"objectstore"`
	Bus         BusConfig         `koanf:"bus"`
	AI          AIConfig          `koanf:"ai"`
	Speech      SpeechConfig      `koanf:"speech"`
	MediaTool   MediaToolConfig   `koanf:"mediatool"`
	Security    SecurityConfig    `koanf:"security"`
	Clustering  ClusteringConfig  `koanf:"clustering"`
}

// ServerConfig controls the HTTP listener and cross-cutting request policy.
type ServerConfig struct {
	BindAddress      string        `koanf:"bind_address"`
	CORSOrigins      []string      `koanf:"cors_origins"`
	UploadByteCap    int64         `koanf:"upload_byte_cap"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
	LogLevel         string        `koanf:"log_level"`
	LogFormat        string        `koanf:"log_format"`
}

// DatabaseConfig configures the DuckDB-backed Geospatial Index / Event Store.
type DatabaseConfig struct {
	Path    string `koanf:"path"`
	Threads int    `koanf:"threads"`
}

// ObjectStoreConfig configures the S3-compatible Object Store Adapter.
type ObjectStoreConfig struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	UseTLS    bool   `koanf:"use_tls"`
	// ForcePathStyle is required by most self-hosted S3-compatible endpoints.
	ForcePathStyle bool `koanf:"force_path_style"`
}

// BusConfig configures the Fan-out Bus / Work Queue transport.
type BusConfig struct {
	// URL is the NATS connection URL. Empty means the in-process stub bus
	// (the !nats build) is used regardless of build tags.
	URL             string        `koanf:"url"`
	ChannelName     string        `koanf:"channel_name"`
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	ReconnectBuffer int           `koanf:"reconnect_buffer"`
}

// AIConfig configures the remote Classifier endpoint.
type AIConfig struct {
	Endpoint string        `koanf:"endpoint"`
	APIKey   string        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

// SpeechConfig configures the remote Audio Transcriber endpoint.
type SpeechConfig struct {
	Endpoint string        `koanf:"endpoint"`
	APIKey   string        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	Timeout  time.Duration `koanf:"timeout"`
}

// MediaToolConfig locates the subprocess binaries used for keyframe
// extraction and controls thumbnail rendition. No component extracts audio
// from uploads, and FFprobePath is not read outside this package.
type MediaToolConfig struct {
	FFmpegPath       string        `koanf:"ffmpeg_path"`
	FFprobePath      string        `koanf:"ffprobe_path"`
	ThumbnailWidth   int           `koanf:"thumbnail_width"`
	ThumbnailQuality int           `koanf:"thumbnail_quality"`
	KeyframeTimeout  time.Duration `koanf:"keyframe_timeout"`
	AudioTimeout     time.Duration `koanf:"audio_timeout"`
}

// SecurityConfig configures JWT issuance/verification.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
}

// ClusteringConfig exposes the §4.2 algorithm parameters.
type ClusteringConfig struct {
	JoinRadiusMeters       float64       `koanf:"join_radius_meters"`
	RecencyWindow          time.Duration `koanf:"recency_window"`
	HighSeverityThreshold  int           `koanf:"high_severity_threshold"`
	CriticalSeverityThresh int           `koanf:"critical_severity_threshold"`
}

// Default returns the built-in defaults, applied before the config file and
// environment overrides (same precedence as the teacher's defaultConfig()).
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:     ":8080",
			CORSOrigins:     []string{"*"},
			UploadByteCap:   50 << 20, // 50 MiB
			ShutdownTimeout: 10 * time.Second,
			LogLevel:        "info",
			LogFormat:       "json",
		},
		Database: DatabaseConfig{
			Path:    "data/attentionmap.duckdb",
			Threads: 0, // 0 => runtime.NumCPU()
		},
		ObjectStore: ObjectStoreConfig{
			Bucket:         "attention-map-media",
			Region:         "us-east-1",
			UseTLS:         true,
			ForcePathStyle: true,
		},
		Bus: BusConfig{
			ChannelName:     "events:updates",
			MaxReconnects:   -1,
			ReconnectWait:   2 * time.Second,
			ReconnectBuffer: 8 * 1024 * 1024,
		},
		AI: AIConfig{
			Model:   "claude-3-5-sonnet-latest",
			Timeout: 60 * time.Second,
		},
		Speech: SpeechConfig{
			Timeout: 30 * time.Second,
		},
		MediaTool: MediaToolConfig{
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
			ThumbnailWidth:   640,
			ThumbnailQuality: 80,
			KeyframeTimeout:  60 * time.Second,
			AudioTimeout:     30 * time.Second,
		},
		Security: SecurityConfig{
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Clustering: ClusteringConfig{
			JoinRadiusMeters:       100,
			RecencyWindow:          30 * time.Minute,
			HighSeverityThreshold:  3,
			CriticalSeverityThresh: 5,
		},
	}
}
