// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package pipeline is the Pipeline Orchestrator: it drives a single Event
// from NEW-with-raw-media to fully enriched, in the fixed stage order of
// SPEC_FULL.md §4.1 (store_media, extract_keyframe, transcribe, classify,
// cluster, broadcast). No stage failure aborts the sequence; each records
// an entry in the returned Report instead. Grounded on the teacher's
// eventprocessor package: a single orchestrating type driving independent
// stage invocations, each timed and counted through internal/metrics,
// logged through internal/logging rather than returned to the caller.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attentionmap/attention-map-server/internal/bus"
	"github.com/attentionmap/attention-map-server/internal/classify"
	"github.com/attentionmap/attention-map-server/internal/clustering"
	"github.com/attentionmap/attention-map-server/internal/keyframe"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/objectstore"
	"github.com/attentionmap/attention-map-server/internal/store"
	"github.com/attentionmap/attention-map-server/internal/transcribe"
)

// Stage names, §4.1.
const (
	StageStoreMedia      = "store_media"
	StageExtractKeyframe = "extract_keyframe"
	StageTranscribe      = "transcribe"
	StageClassify        = "classify"
	StageCluster         = "cluster"
	StageBroadcast       = "broadcast"
)

// StageError records one stage's failure without aborting the pipeline.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Report is the outcome of one process/reprocess invocation.
type Report struct {
	EventID         uuid.UUID    `json:"event_id"`
	CompletedStages []string     `json:"completed_stages"`
	Errors          []StageError `json:"errors"`
}

func (r *Report) complete(stage string) { r.CompletedStages = append(r.CompletedStages, stage) }

func (r *Report) fail(stage string, err error) {
	r.Errors = append(r.Errors, StageError{Stage: stage, Message: err.Error()})
	metrics.PipelineStageErrors.WithLabelValues(stage).Inc()
}

// Store is the subset of *store.Store the orchestrator depends on.
type Store interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateMediaURL(ctx context.Context, id uuid.UUID, url string) error
	UpdateThumbnailURL(ctx context.Context, id uuid.UUID, url string) error
	UpdateTranscription(ctx context.Context, id uuid.UUID, text string) error
	UpdateClassification(ctx context.Context, id uuid.UUID, u store.ClassificationUpdate) error
}

var _ Store = (*store.Store)(nil)

// Orchestrator wires the store and every external-collaborator adapter
// into the fixed stage sequence.
type Orchestrator struct {
	store      Store
	objects    objectstore.Store
	keyframes  keyframe.Extractor
	transcribe transcribe.Transcriber
	classifier classify.Classifier
	cluster    *clustering.Engine
	bus        *bus.Bus
}

// New builds an Orchestrator from its collaborators. Gamification hooks are
// not part of the stage sequence: they fire on submission and on the
// operator status-change command, both outside the orchestrator (§4.5).
func New(
	s Store,
	objects objectstore.Store,
	keyframes keyframe.Extractor,
	transcriber transcribe.Transcriber,
	classifier classify.Classifier,
	cluster *clustering.Engine,
	b *bus.Bus,
) *Orchestrator {
	return &Orchestrator{
		store:      s,
		objects:    objects,
		keyframes:  keyframes,
		transcribe: transcriber,
		classifier: classifier,
		cluster:    cluster,
		bus:        b,
	}
}

// Process runs the full stage sequence for a freshly uploaded event.
// mediaBytes/mediaContentType are empty for reprocessing (see Reprocess).
func (o *Orchestrator) Process(ctx context.Context, eventID uuid.UUID, mediaBytes []byte, mediaContentType string) *Report {
	report := &Report{EventID: eventID}

	event, err := o.store.GetEvent(ctx, eventID)
	if err != nil {
		report.fail(StageStoreMedia, fmt.Errorf("load event: %w", err))
		return report
	}

	haveMedia := len(mediaBytes) > 0
	o.storeMedia(ctx, report, event, mediaBytes, mediaContentType, haveMedia)
	o.extractKeyframe(ctx, report, event, mediaBytes, haveMedia)
	o.transcribeStage(ctx, report, event, mediaBytes, haveMedia)
	o.classifyStage(ctx, report, event)
	o.clusterStage(ctx, report, event)
	o.broadcastStage(ctx, report, event)

	return report
}

// Reprocess re-runs classification, clustering, and broadcast for an event
// whose description was edited after initial enrichment. It skips the
// media-dependent stages (§4.1 "proceeds from 4").
func (o *Orchestrator) Reprocess(ctx context.Context, eventID uuid.UUID) *Report {
	report := &Report{EventID: eventID}

	event, err := o.store.GetEvent(ctx, eventID)
	if err != nil {
		report.fail(StageClassify, fmt.Errorf("load event: %w", err))
		return report
	}

	o.classifyStage(ctx, report, event)
	o.clusterStage(ctx, report, event)
	o.broadcastStage(ctx, report, event)

	return report
}

func (o *Orchestrator) storeMedia(ctx context.Context, report *Report, event *models.Event, mediaBytes []byte, mediaContentType string, haveMedia bool) {
	if !haveMedia {
		return
	}
	timer := prometheusTimer(StageStoreMedia)
	defer timer()

	url, err := o.objects.PutMedia(ctx, event.ID.String(), mediaContentType, mediaBytes)
	if err != nil {
		report.fail(StageStoreMedia, err)
		return
	}
	if err := o.store.UpdateMediaURL(ctx, event.ID, url); err != nil {
		report.fail(StageStoreMedia, err)
		return
	}
	event.MediaURL = &url
	report.complete(StageStoreMedia)
}

func (o *Orchestrator) extractKeyframe(ctx context.Context, report *Report, event *models.Event, mediaBytes []byte, haveMedia bool) {
	if !haveMedia || event.MediaType != models.MediaKindVideo {
		return
	}
	// store_media failing means there is nothing to extract from upstream
	// of the object store, but the raw bytes are still in hand here, so
	// extraction proceeds independently of whether the upload succeeded.
	timer := prometheusTimer(StageExtractKeyframe)
	defer timer()

	frame, err := o.keyframes.Extract(ctx, mediaBytes)
	if err != nil {
		report.fail(StageExtractKeyframe, err)
		return
	}
	if frame == nil {
		return
	}
	url, err := o.objects.PutThumbnail(ctx, event.ID.String(), frame)
	if err != nil {
		report.fail(StageExtractKeyframe, err)
		return
	}
	if err := o.store.UpdateThumbnailURL(ctx, event.ID, url); err != nil {
		report.fail(StageExtractKeyframe, err)
		return
	}
	report.complete(StageExtractKeyframe)
}

func (o *Orchestrator) transcribeStage(ctx context.Context, report *Report, event *models.Event, mediaBytes []byte, haveMedia bool) {
	if !haveMedia || event.MediaType != models.MediaKindVideo {
		return
	}
	timer := prometheusTimer(StageTranscribe)
	defer timer()

	text, err := o.transcribe.Transcribe(ctx, mediaBytes, "video")
	if err != nil {
		report.fail(StageTranscribe, err)
		return
	}
	if text == "" {
		return
	}
	if err := o.store.UpdateTranscription(ctx, event.ID, text); err != nil {
		report.fail(StageTranscribe, err)
		return
	}
	event.Transcription = text
	report.complete(StageTranscribe)
}

func (o *Orchestrator) classifyStage(ctx context.Context, report *Report, event *models.Event) {
	timer := prometheusTimer(StageClassify)
	defer timer()

	result, err := o.classifier.Classify(ctx, event.Description, event.Transcription)
	if err != nil {
		report.fail(StageClassify, err)
		return
	}
	update := store.ClassificationUpdate{
		Category:    result.Category,
		Subcategory: result.Subcategory,
		Severity:    result.Severity,
		Confidence:  result.Confidence,
		Reasoning:   result.Reasoning,
	}
	if err := o.store.UpdateClassification(ctx, event.ID, update); err != nil {
		report.fail(StageClassify, err)
		return
	}
	event.Category = update.Category
	event.Subcategory = update.Subcategory
	event.Severity = update.Severity
	event.Confidence = update.Confidence
	report.complete(StageClassify)
}

func (o *Orchestrator) clusterStage(ctx context.Context, report *Report, event *models.Event) {
	timer := prometheusTimer(StageCluster)
	defer timer()

	clusterID, err := o.cluster.Assign(ctx, event)
	if err != nil {
		report.fail(StageCluster, err)
		return
	}
	event.ClusterID = clusterID
	report.complete(StageCluster)
}

func (o *Orchestrator) broadcastStage(_ context.Context, report *Report, event *models.Event) {
	timer := prometheusTimer(StageBroadcast)
	defer timer()

	o.bus.PublishNewEvent(event)
	report.complete(StageBroadcast)
}

func prometheusTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// LogReport is called by the work-queue consumer to annotate a job's
// terminal report, keeping per-event stage failures visible without
// propagating them as the job's own error (§4.1, §7 "pipeline fatal" vs.
// "per-stage failure").
func LogReport(ctx context.Context, report *Report) {
	l := logging.Ctx(ctx)
	if len(report.Errors) == 0 {
		l.Info().Str("event_id", report.EventID.String()).Strs("stages", report.CompletedStages).Msg("pipeline completed")
		return
	}
	l.Warn().Str("event_id", report.EventID.String()).Int("errors", len(report.Errors)).Msg("pipeline completed with stage errors")
}
