// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attentionmap/attention-map-server/internal/models"
)

const clusterSelectColumns = `SELECT
	id, latitude, longitude, radius_meters, event_count,
	first_event_at, last_event_at, computed_severity`

// GetCluster fetches a single cluster by id.
func (s *Store) GetCluster(ctx context.Context, id uuid.UUID) (*models.EventCluster, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, clusterSelectColumns+" FROM event_clusters WHERE id = ?", id)
	c, err := scanCluster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cluster: %w", err)
	}
	return c, nil
}

// CreateCluster persists a newly formed cluster (§4.2 form_cluster), seeded
// from the event that founded it.
func (s *Store) CreateCluster(ctx context.Context, tx *sql.Tx, c *models.EventCluster) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	exec := s.conn.ExecContext
	if tx != nil {
		exec = tx.ExecContext
	}
	_, err := exec(ctx, `
		INSERT INTO event_clusters
			(id, latitude, longitude, radius_meters, event_count, first_event_at, last_event_at, computed_severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Latitude, c.Longitude, c.RadiusMeters, c.EventCount,
		c.FirstEventAt, c.LastEventAt, int(c.ComputedSeverity),
	)
	if err != nil {
		return fmt.Errorf("insert cluster: %w", err)
	}
	return nil
}

// ClusterAggregate is the recomputed rollup written by §4.2's recompute(C)
// whenever a member event joins the cluster.
type ClusterAggregate struct {
	Latitude         float64
	Longitude        float64
	EventCount       int
	FirstEventAt     time.Time
	LastEventAt      time.Time
	ComputedSeverity models.Severity
}

// UpdateClusterAggregate writes the recomputed centroid, member count, time
// span, and escalated severity for a cluster.
func (s *Store) UpdateClusterAggregate(ctx context.Context, tx *sql.Tx, id uuid.UUID, a ClusterAggregate) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	exec := s.conn.ExecContext
	if tx != nil {
		exec = tx.ExecContext
	}
	_, err := exec(ctx, `
		UPDATE event_clusters
		SET latitude = ?, longitude = ?, event_count = ?, first_event_at = ?, last_event_at = ?, computed_severity = ?
		WHERE id = ?`,
		a.Latitude, a.Longitude, a.EventCount, a.FirstEventAt, a.LastEventAt, int(a.ComputedSeverity), id,
	)
	if err != nil {
		return fmt.Errorf("update cluster aggregate: %w", err)
	}
	return nil
}

// DeleteCluster removes a cluster that has lost all its members (recompute
// reducing event_count to zero — §4.2 edge case).
func (s *Store) DeleteCluster(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	exec := s.conn.ExecContext
	if tx != nil {
		exec = tx.ExecContext
	}
	if _, err := exec(ctx, "DELETE FROM event_clusters WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete cluster: %w", err)
	}
	return nil
}

// ClusterMemberSeverities returns the severities of every event currently
// assigned to cluster id, used by recompute(C) to derive computed_severity
// (the max of its members, §4.2).
func (s *Store) ClusterMemberSeverities(ctx context.Context, tx *sql.Tx, id uuid.UUID) ([]models.Severity, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := s.conn.QueryContext
	if tx != nil {
		query = tx.QueryContext
	}
	rows, err := query(ctx, "SELECT severity FROM events WHERE cluster_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query cluster member severities: %w", err)
	}
	defer rows.Close()

	var out []models.Severity
	for rows.Next() {
		var sev int
		if err := rows.Scan(&sev); err != nil {
			return nil, fmt.Errorf("scan cluster member severity: %w", err)
		}
		out = append(out, models.Severity(sev))
	}
	return out, rows.Err()
}

// ClusterMemberExtent returns the earliest/latest created_at and average
// lat/lon across a cluster's current members, for recomputing its centroid
// and time span.
func (s *Store) ClusterMemberExtent(ctx context.Context, tx *sql.Tx, id uuid.UUID) (lat, lon float64, first, last time.Time, count int, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	queryRow := s.conn.QueryRowContext
	if tx != nil {
		queryRow = tx.QueryRowContext
	}
	row := queryRow(ctx, `
		SELECT avg(latitude), avg(longitude), min(created_at), max(created_at), count(*)
		FROM events WHERE cluster_id = ?`, id)

	var avgLat, avgLon sql.NullFloat64
	var firstN, lastN sql.NullTime
	if scanErr := row.Scan(&avgLat, &avgLon, &firstN, &lastN, &count); scanErr != nil {
		err = fmt.Errorf("scan cluster member extent: %w", scanErr)
		return
	}
	lat, lon, first, last = avgLat.Float64, avgLon.Float64, firstN.Time, lastN.Time
	return
}

// ListClusters returns clusters with more than one member (singleton
// clusters are not exposed, §4.4), optionally bounded, capped at 100.
func (s *Store) ListClusters(ctx context.Context, bounds *BoundingBox) ([]*models.EventCluster, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := clusterSelectColumns + " FROM event_clusters WHERE event_count > 1"
	var args []interface{}
	if bounds != nil {
		query += " AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?"
		args = append(args, bounds.MinLat, bounds.MaxLat, bounds.MinLng, bounds.MaxLng)
	}
	query += " ORDER BY event_count DESC LIMIT 100"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var out []*models.EventCluster
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCluster(row rowScanner) (*models.EventCluster, error) {
	var c models.EventCluster
	var severity int
	if err := row.Scan(
		&c.ID, &c.Latitude, &c.Longitude, &c.RadiusMeters, &c.EventCount,
		&c.FirstEventAt, &c.LastEventAt, &severity,
	); err != nil {
		return nil, err
	}
	c.ComputedSeverity = models.Severity(severity)
	return &c, nil
}
