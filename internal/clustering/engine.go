// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package clustering

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// Store is the subset of *store.Store the clustering engine depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	FindNeighbors(ctx context.Context, excludeID uuid.UUID, lat, lon float64, since time.Time, radiusMeters float64, distanceFn func(lat1, lon1, lat2, lon2 float64) float64) ([]store.NeighborCandidate, error)
	CreateCluster(ctx context.Context, tx *sql.Tx, c *models.EventCluster) error
	UpdateClusterAggregate(ctx context.Context, tx *sql.Tx, id uuid.UUID, a store.ClusterAggregate) error
	DeleteCluster(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	ClusterMemberSeverities(ctx context.Context, tx *sql.Tx, id uuid.UUID) ([]models.Severity, error)
	ClusterMemberExtent(ctx context.Context, tx *sql.Tx, id uuid.UUID) (lat, lon float64, first, last time.Time, count int, err error)
	UpdateCluster(ctx context.Context, tx *sql.Tx, id uuid.UUID, clusterID *uuid.UUID) error
}

var _ Store = (*store.Store)(nil)

// Engine implements the §4.2 algorithm: assign(E), form_cluster, add_to,
// recompute.
type Engine struct {
	store  Store
	radius float64
	window time.Duration
	highT  int
	critT  int
}

// New builds an Engine from the configured clustering parameters.
func New(s Store, cfg *config.ClusteringConfig) *Engine {
	return &Engine{
		store:  s,
		radius: cfg.JoinRadiusMeters,
		window: cfg.RecencyWindow,
		highT:  cfg.HighSeverityThreshold,
		critT:  cfg.CriticalSeverityThresh,
	}
}

// Assign runs §4.2's assign(E): finds all recent, in-radius neighbors N,
// ordered by ascending distance. The first member of N already belonging to
// a cluster wins (add_to); if none of N is clustered, a new cluster is
// formed from E and every member of N (form_cluster); if N is empty, E
// remains unclustered. Returns the cluster id E ended up in, or nil.
func (e *Engine) Assign(ctx context.Context, event *models.Event) (*uuid.UUID, error) {
	since := event.CreatedAt.Add(-e.window)
	neighbors, err := e.store.FindNeighbors(ctx, event.ID, event.Latitude, event.Longitude, since, e.radius, Haversine)
	if err != nil {
		return nil, fmt.Errorf("find neighbors: %w", err)
	}

	if len(neighbors) == 0 {
		metrics.ClusterAssignments.WithLabelValues("unclustered").Inc()
		return nil, nil
	}

	// §4.2 step 3: scan N in ascending-distance order and take the first
	// neighbor that already belongs to a cluster — not necessarily the
	// nearest one. Only when none of N is clustered does E found a new
	// cluster with every member of N (form_cluster), not just the nearest.
	var existing *store.NeighborCandidate
	for i := range neighbors {
		if neighbors[i].ClusterID != nil {
			existing = &neighbors[i]
			break
		}
	}

	var clusterID uuid.UUID
	err = e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if existing != nil {
			clusterID = *existing.ClusterID
			if err := e.store.UpdateCluster(ctx, tx, event.ID, &clusterID); err != nil {
				return fmt.Errorf("add event to cluster: %w", err)
			}
		} else {
			clusterID = uuid.New()
			cluster := &models.EventCluster{
				ID:               clusterID,
				Latitude:         event.Latitude,
				Longitude:        event.Longitude,
				RadiusMeters:     models.DefaultClusterRadiusMeters,
				EventCount:       0,
				FirstEventAt:     event.CreatedAt,
				LastEventAt:      event.CreatedAt,
				ComputedSeverity: event.Severity,
			}
			if err := e.store.CreateCluster(ctx, tx, cluster); err != nil {
				return fmt.Errorf("form cluster: %w", err)
			}
			for _, n := range neighbors {
				if err := e.store.UpdateCluster(ctx, tx, n.EventID, &clusterID); err != nil {
					return fmt.Errorf("join neighbor to cluster: %w", err)
				}
			}
			if err := e.store.UpdateCluster(ctx, tx, event.ID, &clusterID); err != nil {
				return fmt.Errorf("join new event to cluster: %w", err)
			}
		}
		return e.recompute(ctx, tx, clusterID)
	})
	if err != nil {
		return nil, err
	}

	if existing != nil {
		metrics.ClusterAssignments.WithLabelValues("joined_existing").Inc()
	} else {
		metrics.ClusterAssignments.WithLabelValues("formed_new").Inc()
	}
	return &clusterID, nil
}

// recompute implements §4.2's recompute(C): recenters the cluster on its
// members' mean position, stretches its time span, and sets its computed
// severity from the highest member severity, escalated by member count
// alone. If recompute finds the cluster has lost all its members (the
// only path that can happen is a future un-assignment feature; today
// membership only grows), it deletes the cluster.
func (e *Engine) recompute(ctx context.Context, tx *sql.Tx, clusterID uuid.UUID) error {
	lat, lon, first, last, count, err := e.store.ClusterMemberExtent(ctx, tx, clusterID)
	if err != nil {
		return fmt.Errorf("compute cluster extent: %w", err)
	}
	if count == 0 {
		return e.store.DeleteCluster(ctx, tx, clusterID)
	}

	severities, err := e.store.ClusterMemberSeverities(ctx, tx, clusterID)
	if err != nil {
		return fmt.Errorf("load cluster member severities: %w", err)
	}

	computed := escalatedSeverity(severities, e.highT, e.critT)

	if err := e.store.UpdateClusterAggregate(ctx, tx, clusterID, store.ClusterAggregate{
		Latitude:         lat,
		Longitude:        lon,
		EventCount:       count,
		FirstEventAt:     first,
		LastEventAt:      last,
		ComputedSeverity: computed,
	}); err != nil {
		return fmt.Errorf("update cluster aggregate: %w", err)
	}

	logEscalation(ctx, clusterID, computed)
	return nil
}

// escalatedSeverity is the cluster's computed_severity: the maximum member
// severity, escalated to High once >= highT members exist, and to Critical
// once >= critT members exist (§4.2 escalation rule).
func escalatedSeverity(severities []models.Severity, highT, critT int) models.Severity {
	max := models.SeverityLow
	for _, s := range severities {
		if s > max {
			max = s
		}
	}

	n := len(severities)
	if n >= critT && max < models.SeverityCritical {
		max = models.SeverityCritical
	} else if n >= highT && max < models.SeverityHigh {
		max = models.SeverityHigh
	}
	return max
}

func logEscalation(ctx context.Context, clusterID uuid.UUID, sev models.Severity) {
	logging.Ctx(ctx).Info().
		Str("cluster_id", clusterID.String()).
		Int("severity", int(sev)).
		Msg("cluster severity recomputed")
}
