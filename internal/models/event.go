// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package models defines the entities shared across the enrichment
// pipeline, the clustering engine, the fan-out bus, and the query/command
// API: Event, EventCluster, UserProfile, and User.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single citizen-submitted incident report.
//
// The pipeline is the sole writer of MediaURL, ThumbnailURL, Transcription,
// Category, Subcategory, Severity, Confidence, Reasoning, and ClusterID. The
// operator-triage command is the sole writer of Status, ReviewerID, and
// ReviewedAt. See §5 of SPEC_FULL.md for the concurrency rationale.
type Event struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Address   *string `json:"address,omitempty" db:"address"`

	Description string `json:"description" db:"description"`

	MediaURL     *string   `json:"media_url,omitempty" db:"media_url"`
	MediaType    MediaKind `json:"media_type" db:"media_type"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty" db:"thumbnail_url"`

	Transcription string `json:"transcription" db:"transcription"`

	Category    Category `json:"category" db:"category"`
	Subcategory string   `json:"subcategory" db:"subcategory"`
	Severity    Severity `json:"severity" db:"severity"`
	Confidence  *float64 `json:"ai_confidence,omitempty" db:"ai_confidence"`
	Reasoning   string   `json:"-" db:"reasoning"`

	ClusterID *uuid.UUID `json:"cluster_id,omitempty" db:"cluster_id"`

	Status Status `json:"status" db:"status"`

	ReviewerID *int64     `json:"reviewed_by_id,omitempty" db:"reviewed_by_id"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`

	ReporterID *int64 `json:"-" db:"reporter_id"`
}

// NewEvent builds a skeleton Event in status NEW with default severity, as
// created by the upload handler before the pipeline runs (§2, §3
// invariant 2).
func NewEvent(lat, lon float64, description string, mediaType MediaKind, reporterID *int64) *Event {
	return &Event{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		Latitude:    lat,
		Longitude:   lon,
		Description: description,
		MediaType:   mediaType,
		Category:    CategoryInformational,
		Severity:    SeverityLow,
		Status:      StatusNew,
		ReporterID:  reporterID,
	}
}

// EventCluster is a spatio-temporal grouping of events (§4.2).
type EventCluster struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	// RadiusMeters is the join radius used to form this cluster; default 100m.
	RadiusMeters     float64   `json:"radius_meters" db:"radius_meters"`
	EventCount       int       `json:"event_count" db:"event_count"`
	FirstEventAt     time.Time `json:"first_event_at" db:"first_event_at"`
	LastEventAt      time.Time `json:"last_event_at" db:"last_event_at"`
	ComputedSeverity Severity  `json:"computed_severity" db:"computed_severity"`
}

// DefaultClusterRadiusMeters is R_m from §4.2.
const DefaultClusterRadiusMeters = 100.0
