// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attentionmap/attention-map-server/internal/bus"
	"github.com/attentionmap/attention-map-server/internal/classify"
	"github.com/attentionmap/attention-map-server/internal/clustering"
	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// ===================================================================================================
// Test doubles: each pipeline collaborator gets a hand-rolled stub
// implementing its interface, mirroring the teacher's MockEventStore
// pattern rather than a generated-mock library.
// ===================================================================================================

type mockStore struct {
	event              *models.Event
	failGetEvent       bool
	failUpdateMedia    bool
	failUpdateClassify bool
}

func (m *mockStore) GetEvent(_ context.Context, _ uuid.UUID) (*models.Event, error) {
	if m.failGetEvent {
		return nil, errors.New("load failed")
	}
	return m.event, nil
}

func (m *mockStore) UpdateMediaURL(_ context.Context, _ uuid.UUID, _ string) error {
	if m.failUpdateMedia {
		return errors.New("update media failed")
	}
	return nil
}

func (m *mockStore) UpdateThumbnailURL(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (m *mockStore) UpdateTranscription(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (m *mockStore) UpdateClassification(_ context.Context, _ uuid.UUID, _ store.ClassificationUpdate) error {
	if m.failUpdateClassify {
		return errors.New("update classification failed")
	}
	return nil
}

type mockObjects struct {
	failPutMedia bool
}

func (m *mockObjects) PutMedia(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	if m.failPutMedia {
		return "", errors.New("put media failed")
	}
	return "https://media.example/event.jpg", nil
}

func (m *mockObjects) PutThumbnail(_ context.Context, _ string, _ []byte) (string, error) {
	return "https://media.example/thumb.jpg", nil
}

type mockKeyframes struct{}

func (mockKeyframes) Extract(_ context.Context, _ []byte) ([]byte, error) { return nil, nil }

type mockTranscriber struct{}

func (mockTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", nil
}

type mockClassifier struct {
	failClassify bool
	result       classify.Result
}

func (m *mockClassifier) Classify(_ context.Context, _, _ string) (classify.Result, error) {
	if m.failClassify {
		return classify.Result{}, errors.New("classify failed")
	}
	return m.result, nil
}

// mockClusterStore implements clustering.Store with FindNeighbors always
// reporting no candidate, so Assign takes the "unclustered" path and never
// opens a transaction — the other methods are never called and need not be
// functional.
type mockClusterStore struct{}

func (mockClusterStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}
func (mockClusterStore) FindNeighbors(context.Context, uuid.UUID, float64, float64, time.Time, float64, func(float64, float64, float64, float64) float64) ([]store.NeighborCandidate, error) {
	return nil, nil
}
func (mockClusterStore) CreateCluster(context.Context, *sql.Tx, *models.EventCluster) error {
	return nil
}
func (mockClusterStore) UpdateClusterAggregate(context.Context, *sql.Tx, uuid.UUID, store.ClusterAggregate) error {
	return nil
}
func (mockClusterStore) DeleteCluster(context.Context, *sql.Tx, uuid.UUID) error { return nil }
func (mockClusterStore) ClusterMemberSeverities(context.Context, *sql.Tx, uuid.UUID) ([]models.Severity, error) {
	return nil, nil
}
func (mockClusterStore) ClusterMemberExtent(context.Context, *sql.Tx, uuid.UUID) (float64, float64, time.Time, time.Time, int, error) {
	return 0, 0, time.Time{}, time.Time{}, 0, nil
}
func (mockClusterStore) UpdateCluster(context.Context, *sql.Tx, uuid.UUID, *uuid.UUID) error {
	return nil
}
func (mockClusterStore) UpdateSeverity(context.Context, *sql.Tx, uuid.UUID, models.Severity) error {
	return nil
}
func (mockClusterStore) GetCluster(context.Context, uuid.UUID) (*models.EventCluster, error) {
	return nil, nil
}

func newTestOrchestrator(t *testing.T, s Store, objects *mockObjects, classifier *mockClassifier) *Orchestrator {
	t.Helper()
	clusterEngine := clustering.New(mockClusterStore{}, &config.ClusteringConfig{
		JoinRadiusMeters:       100,
		RecencyWindow:          30 * time.Minute,
		HighSeverityThreshold:  3,
		CriticalSeverityThresh: 5,
	})
	b, err := bus.New(&config.BusConfig{})
	if err != nil {
		t.Fatalf("bus.New() error = %v", err)
	}
	return New(s, objects, mockKeyframes{}, mockTranscriber{}, classifier, clusterEngine, b)
}

func newTestEvent(mediaType models.MediaKind) *models.Event {
	return models.NewEvent(1.0, 2.0, "a report", mediaType, nil)
}

// ===================================================================================================
// Process
// ===================================================================================================

func TestOrchestrator_Process_AllStagesCompleteForImage(t *testing.T) {
	event := newTestEvent(models.MediaKindImage)
	s := &mockStore{event: event}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{result: classify.Result{
		Category: models.CategoryTraffic,
		Severity: models.SeverityMedium,
	}})

	report := orch.Process(context.Background(), event.ID, []byte("jpeg-bytes"), "image/jpeg")

	if len(report.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", report.Errors)
	}
	want := []string{StageStoreMedia, StageClassify, StageCluster, StageBroadcast}
	if !equalStrings(report.CompletedStages, want) {
		t.Errorf("CompletedStages = %v, want %v (images skip keyframe/transcribe)", report.CompletedStages, want)
	}
}

func TestOrchestrator_Process_AllStagesCompleteForVideo(t *testing.T) {
	event := newTestEvent(models.MediaKindVideo)
	s := &mockStore{event: event}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{})

	report := orch.Process(context.Background(), event.ID, []byte("video-bytes"), "video/mp4")

	if len(report.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", report.Errors)
	}
	want := []string{StageStoreMedia, StageClassify, StageCluster, StageBroadcast}
	if !equalStrings(report.CompletedStages, want) {
		t.Errorf("CompletedStages = %v, want %v", report.CompletedStages, want)
	}
}

func TestOrchestrator_Process_NoMediaSkipsMediaStages(t *testing.T) {
	event := newTestEvent(models.MediaKindImage)
	s := &mockStore{event: event}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{})

	report := orch.Process(context.Background(), event.ID, nil, "")

	for _, stage := range report.CompletedStages {
		if stage == StageStoreMedia {
			t.Errorf("store_media must not run with no media bytes")
		}
	}
	want := []string{StageClassify, StageCluster, StageBroadcast}
	if !equalStrings(report.CompletedStages, want) {
		t.Errorf("CompletedStages = %v, want %v", report.CompletedStages, want)
	}
}

func TestOrchestrator_Process_EventLoadFailureAbortsEverything(t *testing.T) {
	s := &mockStore{failGetEvent: true}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{})

	report := orch.Process(context.Background(), uuid.New(), []byte("x"), "image/jpeg")

	if len(report.CompletedStages) != 0 {
		t.Errorf("CompletedStages = %v, want none when the event cannot be loaded", report.CompletedStages)
	}
	if len(report.Errors) != 1 || report.Errors[0].Stage != StageStoreMedia {
		t.Errorf("Errors = %v, want a single store_media-tagged load failure", report.Errors)
	}
}

func TestOrchestrator_Process_StageFailureDoesNotAbortSubsequentStages(t *testing.T) {
	event := newTestEvent(models.MediaKindImage)
	s := &mockStore{event: event}
	orch := newTestOrchestrator(t, s, &mockObjects{failPutMedia: true}, &mockClassifier{})

	report := orch.Process(context.Background(), event.ID, []byte("jpeg-bytes"), "image/jpeg")

	if len(report.Errors) != 1 || report.Errors[0].Stage != StageStoreMedia {
		t.Fatalf("Errors = %v, want a single store_media failure", report.Errors)
	}
	want := []string{StageClassify, StageCluster, StageBroadcast}
	if !equalStrings(report.CompletedStages, want) {
		t.Errorf("CompletedStages = %v, want later stages to still run after store_media fails", report.CompletedStages)
	}
}

func TestOrchestrator_Process_ClassifyFailureStillClustersAndBroadcasts(t *testing.T) {
	event := newTestEvent(models.MediaKindImage)
	s := &mockStore{event: event}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{failClassify: true})

	report := orch.Process(context.Background(), event.ID, nil, "")

	if len(report.Errors) != 1 || report.Errors[0].Stage != StageClassify {
		t.Fatalf("Errors = %v, want a single classify failure", report.Errors)
	}
	want := []string{StageCluster, StageBroadcast}
	if !equalStrings(report.CompletedStages, want) {
		t.Errorf("CompletedStages = %v, want cluster/broadcast to still run", report.CompletedStages)
	}
}

// ===================================================================================================
// Reprocess
// ===================================================================================================

func TestOrchestrator_Reprocess_SkipsMediaStages(t *testing.T) {
	event := newTestEvent(models.MediaKindVideo)
	s := &mockStore{event: event}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{})

	report := orch.Reprocess(context.Background(), event.ID)

	want := []string{StageClassify, StageCluster, StageBroadcast}
	if !equalStrings(report.CompletedStages, want) {
		t.Errorf("CompletedStages = %v, want %v (reprocess proceeds from classify)", report.CompletedStages, want)
	}
}

func TestOrchestrator_Reprocess_EventLoadFailure(t *testing.T) {
	s := &mockStore{failGetEvent: true}
	orch := newTestOrchestrator(t, s, &mockObjects{}, &mockClassifier{})

	report := orch.Reprocess(context.Background(), uuid.New())

	if len(report.Errors) != 1 || report.Errors[0].Stage != StageClassify {
		t.Errorf("Errors = %v, want a single classify-tagged load failure", report.Errors)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
