// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package classify is the Classifier: assigns category, severity, and a
// confidence score to an event from its description and transcription
// (SPEC_FULL.md §4). It is grounded on the pack's declared
// anthropics/anthropic-sdk-go dependency (jordigilh-kubernaut/go.mod); no
// concrete call-site was retrieved for it in the pack, so the client usage
// below follows the SDK's documented Messages.New idiom — see DESIGN.md.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker/v2"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
	"github.com/attentionmap/attention-map-server/internal/models"
)

// Result is the classifier's output for one event (§4.1 classify stage).
type Result struct {
	Category    models.Category
	Subcategory string
	Severity    models.Severity
	Confidence  *float64
	Reasoning   string
}

// Classifier derives a Result from the event's textual signals.
type Classifier interface {
	Classify(ctx context.Context, description, transcription string) (Result, error)
}

// Client calls a remote Claude model to perform classification.
type Client struct {
	anthropic *anthropic.Client
	model     string
	cb        *gobreaker.CircuitBreaker[any]
}

// New builds a Client. If cfg.APIKey is empty, it returns a
// DefaultClassifier so the pipeline still completes without a configured
// classifier backend.
func New(cfg *config.AIConfig) Classifier {
	if cfg.APIKey == "" {
		return DefaultClassifier{}
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	client := anthropic.NewClient(opts...)

	return &Client{
		anthropic: &client,
		model:     cfg.Model,
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "classify",
			Timeout: cfg.Timeout,
		}),
	}
}

const classifyPrompt = `You are classifying a civic-incident report for a public safety platform.
Given the description and transcription below, respond with ONLY a JSON object
of the form {"category":"...","subcategory":"...","severity":1-4,"confidence":0.0-1.0,"reasoning":"..."}.
category must be one of: emergency, security, traffic, protest, infrastructure, environmental, informational.
severity: 1=low, 2=medium, 3=high, 4=critical.

Description: %s
Transcription: %s`

type classifyPayload struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Severity    int     `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// Classify sends the event's text to the model and parses its JSON verdict.
func (c *Client) Classify(ctx context.Context, description, transcription string) (Result, error) {
	start := time.Now()
	raw, err := c.cb.Execute(func() (any, error) {
		return c.call(ctx, description, transcription)
	})
	metrics.ExternalCallDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrors.WithLabelValues("classify").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("classifier call failed, falling back to default classification")
		return DefaultClassifier{}.Classify(ctx, description, transcription)
	}
	return raw.(Result), nil
}

func (c *Client) call(ctx context.Context, description, transcription string) (Result, error) {
	msg, err := c.anthropic.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(classifyPrompt, description, transcription))),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("call classifier model: %w", err)
	}
	if len(msg.Content) == 0 {
		return Result{}, fmt.Errorf("classifier returned empty content")
	}

	text := stripCodeFence(msg.Content[0].Text)

	var payload classifyPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return Result{}, fmt.Errorf("parse classifier response: %w", err)
	}

	category := models.Category(payload.Category)
	if !models.ValidCategory(category) {
		category = models.CategoryInformational
	}
	severity := models.Severity(payload.Severity)
	if !models.ValidSeverity(severity) {
		severity = models.SeverityLow
	}
	confidence := payload.Confidence

	return Result{
		Category:    category,
		Subcategory: payload.Subcategory,
		Severity:    severity,
		Confidence:  &confidence,
		Reasoning:   payload.Reasoning,
	}, nil
}

// stripCodeFence removes a ```json ... ``` or ``` ... ``` wrapper some
// models add around structured output (§9 open question: the model is
// instructed to return bare JSON, but fenced output is tolerated).
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DefaultClassifier is selected when no classifier backend is configured,
// and is also the fallback on any classifier call failure. It assigns the
// conservative baseline from §2: informational, low severity, no
// confidence score.
type DefaultClassifier struct{}

var _ Classifier = DefaultClassifier{}

func (DefaultClassifier) Classify(_ context.Context, _, _ string) (Result, error) {
	return Result{
		Category:  models.CategoryInformational,
		Severity:  models.SeverityLow,
		Reasoning: "classifier unavailable; default classification applied",
	}, nil
}
