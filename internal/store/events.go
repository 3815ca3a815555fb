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

// ErrNotFound is returned by lookups when no matching row exists.
var ErrNotFound = errors.New("not found")

// CreateEvent inserts the skeleton Event built by the upload handler.
func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO events (id, created_at, latitude, longitude, address, description,
			media_type, category, subcategory, severity, status, reporter_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt, e.Latitude, e.Longitude, e.Address, e.Description,
		string(e.MediaType), string(e.Category), e.Subcategory, int(e.Severity),
		string(e.Status), e.ReporterID,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent fetches a single Event by id.
func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, eventSelectColumns+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// UpdateMediaURL records the object-store URL for the raw media (store_media
// stage, §4.1).
func (s *Store) UpdateMediaURL(ctx context.Context, id uuid.UUID, url string) error {
	return s.execUpdate(ctx, "UPDATE events SET media_url = ? WHERE id = ?", url, id)
}

// UpdateThumbnailURL records the keyframe thumbnail URL (extract_keyframe
// stage).
func (s *Store) UpdateThumbnailURL(ctx context.Context, id uuid.UUID, url string) error {
	return s.execUpdate(ctx, "UPDATE events SET thumbnail_url = ? WHERE id = ?", url, id)
}

// UpdateTranscription records the transcription text (transcribe stage).
func (s *Store) UpdateTranscription(ctx context.Context, id uuid.UUID, text string) error {
	return s.execUpdate(ctx, "UPDATE events SET transcription = ? WHERE id = ?", text, id)
}

// ClassificationUpdate holds the fields written by the classify stage.
type ClassificationUpdate struct {
	Category    models.Category
	Subcategory string
	Severity    models.Severity
	Confidence  *float64
	Reasoning   string
}

// UpdateClassification records the classifier's output (classify stage).
func (s *Store) UpdateClassification(ctx context.Context, id uuid.UUID, u ClassificationUpdate) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.conn.ExecContext(ctx, `
		UPDATE events
		SET category = ?, subcategory = ?, severity = ?, ai_confidence = ?, reasoning = ?
		WHERE id = ?`,
		string(u.Category), u.Subcategory, int(u.Severity), u.Confidence, u.Reasoning, id,
	)
	if err != nil {
		return fmt.Errorf("update classification: %w", err)
	}
	return nil
}

// UpdateCluster assigns (or clears, with nil) the event's cluster reference
// (§4.2 add_to / form_cluster).
func (s *Store) UpdateCluster(ctx context.Context, tx *sql.Tx, id uuid.UUID, clusterID *uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	exec := s.conn.ExecContext
	if tx != nil {
		exec = tx.ExecContext
	}
	_, err := exec(ctx, "UPDATE events SET cluster_id = ? WHERE id = ?", clusterID, id)
	if err != nil {
		return fmt.Errorf("update event cluster: %w", err)
	}
	return nil
}

// UpdateSeverity sets an event's severity. Nothing in this module calls it;
// cluster escalation changes only the cluster's computed severity.
func (s *Store) UpdateSeverity(ctx context.Context, tx *sql.Tx, id uuid.UUID, severity models.Severity) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	exec := s.conn.ExecContext
	if tx != nil {
		exec = tx.ExecContext
	}
	_, err := exec(ctx, "UPDATE events SET severity = ? WHERE id = ?", int(severity), id)
	if err != nil {
		return fmt.Errorf("update event severity: %w", err)
	}
	return nil
}

// TriageUpdate is the operator-only write set (status command, §4.4).
type TriageUpdate struct {
	Status     models.Status
	ReviewerID int64
	ReviewedAt time.Time
}

// UpdateTriage applies the operator status-change command. It writes only
// the triage fields, never pipeline-owned fields, so it cannot race with
// enrichment writes (§5, §9 "last-writer-wins" note).
func (s *Store) UpdateTriage(ctx context.Context, id uuid.UUID, u TriageUpdate) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.conn.ExecContext(ctx, `
		UPDATE events SET status = ?, reviewed_by_id = ?, reviewed_at = ? WHERE id = ?`,
		string(u.Status), u.ReviewerID, u.ReviewedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update triage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) execUpdate(ctx context.Context, query string, args ...interface{}) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec update: %w", err)
	}
	return nil
}

const eventSelectColumns = `SELECT
	id, created_at, latitude, longitude, address, description,
	media_url, media_type, thumbnail_url, transcription,
	category, subcategory, severity, ai_confidence, reasoning,
	cluster_id, status, reviewed_by_id, reviewed_at, reporter_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	var mediaType, category, status string
	var severity int
	if err := row.Scan(
		&e.ID, &e.CreatedAt, &e.Latitude, &e.Longitude, &e.Address, &e.Description,
		&e.MediaURL, &mediaType, &e.ThumbnailURL, &e.Transcription,
		&category, &e.Subcategory, &severity, &e.Confidence, &e.Reasoning,
		&e.ClusterID, &status, &e.ReviewerID, &e.ReviewedAt, &e.ReporterID,
	); err != nil {
		return nil, err
	}
	e.MediaType = models.MediaKind(mediaType)
	e.Category = models.Category(category)
	e.Status = models.Status(status)
	e.Severity = models.Severity(severity)
	return &e, nil
}
