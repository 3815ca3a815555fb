// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attentionmap/attention-map-server/internal/models"
)

// BoundingBox is the (lat1,lng1,lat2,lng2) rectangle accepted by §4.4's
// `bounds` query parameter.
type BoundingBox struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}

// EventFilter captures the §4.4 Event list query parameters. Zero-value
// (nil/empty) fields mean "no filter on this dimension".
type EventFilter struct {
	Bounds     *BoundingBox
	Statuses   []models.Status
	Severities []models.Severity
	Categories []models.Category
	Since      *time.Time
	Limit      int
	Offset     int
}

// ListEvents returns events matching filter, newest-first, plus the total
// count ignoring limit/offset (for pagination metadata).
func (s *Store) ListEvents(ctx context.Context, f EventFilter) (events []*models.Event, total int, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args := buildEventWhere(f)

	countQuery := "SELECT count(*) FROM events" + where
	if err := s.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := eventSelectColumns + " FROM events" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.conn.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func buildEventWhere(f EventFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if b := f.Bounds; b != nil {
		clauses = append(clauses, "latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?")
		args = append(args, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}
	if len(f.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if len(f.Severities) > 0 {
		clauses = append(clauses, "severity IN ("+placeholders(len(f.Severities))+")")
		for _, sv := range f.Severities {
			args = append(args, int(sv))
		}
	}
	if len(f.Categories) > 0 {
		clauses = append(clauses, "category IN ("+placeholders(len(f.Categories))+")")
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, *f.Since)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "?"
	}
	return strings.Join(ps, ", ")
}

// NeighborCandidate is one row of the clustering engine's neighborhood
// query N from §4.2, with the already-computed great-circle distance.
type NeighborCandidate struct {
	EventID   uuid.UUID
	ClusterID *uuid.UUID
	Severity  models.Severity
	DistanceM float64
}

// FindNeighbors returns events other than excludeID created at or after
// since, ordered by ascending distance to (lat, lon), keeping only those
// within radiusMeters. Distance is computed in Go using the haversine
// formula (clustering.Haversine) rather than in SQL, so the result is
// correct whether or not the spatial extension loaded.
func (s *Store) FindNeighbors(ctx context.Context, excludeID uuid.UUID, lat, lon float64, since time.Time, radiusMeters float64, distanceFn func(lat1, lon1, lat2, lon2 float64) float64) ([]NeighborCandidate, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, cluster_id, severity, latitude, longitude
		FROM events
		WHERE id != ? AND created_at >= ?`,
		excludeID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query neighbor candidates: %w", err)
	}
	defer rows.Close()

	var out []NeighborCandidate
	for rows.Next() {
		var id uuid.UUID
		var clusterID *uuid.UUID
		var severity int
		var eLat, eLon float64
		if err := rows.Scan(&id, &clusterID, &severity, &eLat, &eLon); err != nil {
			return nil, fmt.Errorf("scan neighbor candidate: %w", err)
		}
		d := distanceFn(lat, lon, eLat, eLon)
		if d <= radiusMeters {
			out = append(out, NeighborCandidate{EventID: id, ClusterID: clusterID, Severity: models.Severity(severity), DistanceM: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByDistance(out)
	return out, nil
}

func sortByDistance(c []NeighborCandidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].DistanceM < c[j-1].DistanceM; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

// Stats aggregates the §4.4 summary-stats response.
type Stats struct {
	TotalEvents      int
	EventsByStatus   map[string]int
	EventsByCategory map[string]int
	EventsBySeverity map[string]int
	ActiveClusters   int
}

// SummaryStats computes the full-corpus counts for GET /stats/summary.
func (s *Store) SummaryStats(ctx context.Context) (*Stats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	st := &Stats{
		EventsByStatus:   map[string]int{},
		EventsByCategory: map[string]int{},
		EventsBySeverity: map[string]int{},
	}

	if err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM events").Scan(&st.TotalEvents); err != nil {
		return nil, fmt.Errorf("count total events: %w", err)
	}

	if err := s.groupCount(ctx, "SELECT status, count(*) FROM events GROUP BY status", st.EventsByStatus); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "SELECT category, count(*) FROM events WHERE category != '' GROUP BY category", st.EventsByCategory); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "SELECT severity, count(*) FROM events GROUP BY severity", st.EventsBySeverity); err != nil {
		return nil, err
	}
	if err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM event_clusters WHERE event_count > 1").Scan(&st.ActiveClusters); err != nil {
		return nil, fmt.Errorf("count active clusters: %w", err)
	}

	return st, nil
}

// groupCount runs a `SELECT <col>, count(*) ... GROUP BY <col>` query and
// fills into with string(key) -> count. Severity's key column is an
// INTEGER, so it scans through a generic interface{} and formats it with
// fmt.Sprint rather than assuming TEXT.
func (s *Store) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("group count query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key interface{}
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan group count: %w", err)
		}
		into[fmt.Sprint(key)] = count
	}
	return rows.Err()
}
