// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package keyframe is the Keyframe Extractor: derives a representative
// still-frame thumbnail from a video upload (SPEC_FULL.md §4). It shells
// out to ffmpeg, grounded on the teacher's exec.CommandContext subprocess
// idiom in internal/testinfra/containers.go.
package keyframe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

// Extractor derives a JPEG thumbnail from video bytes.
type Extractor interface {
	Extract(ctx context.Context, video []byte) (jpeg []byte, err error)
}

// FFmpegExtractor shells out to a local ffmpeg binary.
type FFmpegExtractor struct {
	ffmpegPath string
	width      int
	quality    int
	timeout    time.Duration
}

// New builds an Extractor. If ffmpeg cannot be found on PATH (or at
// cfg.FFmpegPath), it returns a NoopExtractor instead, so the pipeline still
// runs end to end in environments without the tool installed.
func New(cfg *config.MediaToolConfig) Extractor {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return NoopExtractor{}
	}
	return &FFmpegExtractor{
		ffmpegPath: cfg.FFmpegPath,
		width:      cfg.ThumbnailWidth,
		quality:    cfg.ThumbnailQuality,
		timeout:    cfg.KeyframeTimeout,
	}
}

// Extract writes video to a temp file, runs ffmpeg to pull the first frame
// at a fixed offset and scale it to the configured width, and returns the
// resulting JPEG bytes.
func (e *FFmpegExtractor) Extract(ctx context.Context, video []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.ExternalCallDuration.WithLabelValues("keyframe").Observe(time.Since(start).Seconds())
	}()

	dir, err := os.MkdirTemp("", "attentionmap-keyframe-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.mp4")
	if err := os.WriteFile(inputPath, video, 0o600); err != nil {
		return nil, fmt.Errorf("write temp video: %w", err)
	}
	outputPath := filepath.Join(dir, "keyframe.jpg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-y",
		"-ss", "00:00:01",
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", e.width),
		"-q:v", qualityArg(e.quality),
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.ExternalCallErrors.WithLabelValues("keyframe").Inc()
		return nil, fmt.Errorf("ffmpeg keyframe extraction failed: %w: %s", err, stderr.String())
	}

	jpeg, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read extracted keyframe: %w", err)
	}
	return jpeg, nil
}

// qualityArg maps a 0-100 quality percentage onto ffmpeg's inverted 2-31
// mjpeg quality scale.
func qualityArg(pct int) string {
	if pct <= 0 {
		pct = 80
	}
	if pct > 100 {
		pct = 100
	}
	q := 31 - (pct*29)/100
	if q < 2 {
		q = 2
	}
	return fmt.Sprint(q)
}

// NoopExtractor is selected when ffmpeg is unavailable. Extract returns an
// empty thumbnail so downstream stages treat it as "no thumbnail produced"
// rather than failing the job.
type NoopExtractor struct{}

var _ Extractor = NoopExtractor{}

func (NoopExtractor) Extract(_ context.Context, _ []byte) ([]byte, error) {
	return nil, nil
}
