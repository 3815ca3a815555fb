// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package transcribe is the Audio Transcriber: sends an event's uploaded
// media bytes as they are to a speech-to-text endpoint and returns the text
// for the classifier (SPEC_FULL.md §4); no audio track is extracted from
// video uploads first. It
// is a thin HTTP client over a remote speech-to-text endpoint, following
// the teacher's circuit-breaker-wrapped external-call pattern used for its
// eventprocessor publisher.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (text string, err error)
}

// Client calls a remote speech-to-text HTTP endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker[any]
}

// New builds a Client. If cfg.Endpoint is empty, it returns a NoopTranscriber
// so the pipeline still completes without a configured speech backend.
func New(cfg *config.SpeechConfig) Transcriber {
	if cfg.Endpoint == "" {
		return NoopTranscriber{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "transcribe",
			Timeout: 30 * time.Second,
		}),
	}
}

type transcribeRequest struct {
	Model       string `json:"model"`
	ContentType string `json:"content_type"`
	Audio       []byte `json:"audio"`
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe posts the audio to the configured endpoint and returns the
// resulting text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	start := time.Now()
	result, err := c.cb.Execute(func() (any, error) {
		return c.call(ctx, audio, contentType)
	})
	metrics.ExternalCallDuration.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrors.WithLabelValues("transcribe").Inc()
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return result.(string), nil
}

func (c *Client) call(ctx context.Context, audio []byte, contentType string) (string, error) {
	body, err := json.Marshal(transcribeRequest{Model: c.model, ContentType: contentType, Audio: audio})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call speech endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech endpoint returned status %d", resp.StatusCode)
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Text, nil
}

// NoopTranscriber is selected when no speech endpoint is configured. It
// returns an empty transcription, which the classifier treats as "no
// speech present" rather than an error.
type NoopTranscriber struct{}

var _ Transcriber = NoopTranscriber{}

func (NoopTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", nil
}
