// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package clustering

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// fakeStore is an in-memory clustering.Store double that actually tracks
// cluster membership, unlike a stub that only returns canned neighbors —
// needed here to assert *which* events end up in *which* cluster after
// Assign, mirroring the teacher's MockEventStore pattern of a map keyed by
// id rather than a mocking library.
type fakeStore struct {
	neighbors []store.NeighborCandidate
	severity  map[uuid.UUID]models.Severity

	created    uuid.UUID
	createdAny bool
	members    map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		severity: make(map[uuid.UUID]models.Severity),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeStore) WithTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

func (f *fakeStore) FindNeighbors(context.Context, uuid.UUID, float64, float64, time.Time, float64, func(float64, float64, float64, float64) float64) ([]store.NeighborCandidate, error) {
	return f.neighbors, nil
}

func (f *fakeStore) CreateCluster(_ context.Context, _ *sql.Tx, c *models.EventCluster) error {
	f.created = c.ID
	f.createdAny = true
	f.members[c.ID] = make(map[uuid.UUID]bool)
	return nil
}

func (f *fakeStore) UpdateClusterAggregate(context.Context, *sql.Tx, uuid.UUID, store.ClusterAggregate) error {
	return nil
}

func (f *fakeStore) DeleteCluster(_ context.Context, _ *sql.Tx, id uuid.UUID) error {
	delete(f.members, id)
	return nil
}

func (f *fakeStore) ClusterMemberSeverities(_ context.Context, _ *sql.Tx, id uuid.UUID) ([]models.Severity, error) {
	var out []models.Severity
	for eventID := range f.members[id] {
		out = append(out, f.severity[eventID])
	}
	return out, nil
}

func (f *fakeStore) ClusterMemberExtent(_ context.Context, _ *sql.Tx, id uuid.UUID) (float64, float64, time.Time, time.Time, int, error) {
	return 0, 0, time.Time{}, time.Time{}, len(f.members[id]), nil
}

func (f *fakeStore) UpdateCluster(_ context.Context, _ *sql.Tx, eventID uuid.UUID, clusterID *uuid.UUID) error {
	for _, set := range f.members {
		delete(set, eventID)
	}
	if clusterID != nil {
		f.members[*clusterID][eventID] = true
	}
	return nil
}

func newTestEngine(s *fakeStore) *Engine {
	return New(s, &config.ClusteringConfig{
		JoinRadiusMeters:       100,
		RecencyWindow:          30 * time.Minute,
		HighSeverityThreshold:  3,
		CriticalSeverityThresh: 5,
	})
}

// TestAssign_JoinsFartherClusteredNeighborOverNearerUnclustered reproduces
// §4.2 step 3: N must be scanned in full for the first clustered member,
// not just its nearest element.
func TestAssign_JoinsFartherClusteredNeighborOverNearerUnclustered(t *testing.T) {
	s := newFakeStore()

	existingCluster := uuid.New()
	s.members[existingCluster] = map[uuid.UUID]bool{}

	nearUnclustered := uuid.New()
	farClustered := uuid.New()
	s.severity[nearUnclustered] = models.SeverityLow
	s.severity[farClustered] = models.SeverityLow
	s.members[existingCluster][farClustered] = true

	s.neighbors = []store.NeighborCandidate{
		{EventID: nearUnclustered, ClusterID: nil, Severity: models.SeverityLow, DistanceM: 10},
		{EventID: farClustered, ClusterID: &existingCluster, Severity: models.SeverityLow, DistanceM: 90},
	}

	engine := newTestEngine(s)
	event := models.NewEvent(52.2297, 21.0122, "a report", models.MediaKindImage, nil)

	clusterID, err := engine.Assign(context.Background(), event)
	require.NoError(t, err)
	require.NotNil(t, clusterID)

	assert.Equal(t, existingCluster, *clusterID, "E must join the existing cluster of the farther neighbor")
	assert.False(t, s.createdAny, "no new cluster should have been created")
	assert.True(t, s.members[existingCluster][event.ID], "E must be recorded as a member of the existing cluster")
	assert.True(t, s.members[existingCluster][farClustered], "the originally clustered neighbor must remain a member")
	assert.False(t, s.members[existingCluster][nearUnclustered], "the nearer unclustered neighbor must not be pulled in")
}

// TestAssign_FormClusterIncludesEveryNeighbor reproduces the form_cluster
// orphaning bug: when no neighbor is yet clustered, every member of N joins
// the newly formed cluster, not just the nearest one.
func TestAssign_FormClusterIncludesEveryNeighbor(t *testing.T) {
	s := newFakeStore()

	n1, n2, n3 := uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{n1, n2, n3} {
		s.severity[id] = models.SeverityLow
	}
	s.neighbors = []store.NeighborCandidate{
		{EventID: n1, ClusterID: nil, Severity: models.SeverityLow, DistanceM: 80},
		{EventID: n2, ClusterID: nil, Severity: models.SeverityLow, DistanceM: 85},
		{EventID: n3, ClusterID: nil, Severity: models.SeverityLow, DistanceM: 90},
	}

	engine := newTestEngine(s)
	event := models.NewEvent(52.2297, 21.0122, "a report", models.MediaKindImage, nil)
	s.severity[event.ID] = models.SeverityLow

	clusterID, err := engine.Assign(context.Background(), event)
	require.NoError(t, err)
	require.NotNil(t, clusterID)

	assert.True(t, s.createdAny)
	assert.Equal(t, *clusterID, s.created)

	members := s.members[*clusterID]
	assert.Len(t, members, 4, "the new cluster must contain the new event and all three neighbors")
	for _, id := range []uuid.UUID{event.ID, n1, n2, n3} {
		assert.True(t, members[id], "expected %s to be a cluster member", id)
	}
}
