// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/attentionmap/attention-map-server/internal/apierror"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
	"github.com/attentionmap/attention-map-server/internal/validation"
)

// uploadResponse is the 202 body returned by the upload handler, §6.
type uploadResponse struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// handleUpload parses a multipart submission, persists a skeleton Event in
// status NEW, enqueues a pipeline job, and returns immediately (§2, §6).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadByteCap)
	if err := r.ParseMultipartForm(s.cfg.UploadByteCap); err != nil {
		respondError(r, w, apierror.Validation("upload exceeds the allowed size or is malformed"))
		return
	}

	req := validation.UploadEventRequest{
		Latitude:    parseFormFloat(r, "latitude"),
		Longitude:   parseFormFloat(r, "longitude"),
		Description: r.FormValue("description"),
	}
	if apiErr := validation.ValidateStruct(&req); apiErr != nil {
		respondError(r, w, apiErr)
		return
	}

	file, header, err := r.FormFile("media")
	if err != nil {
		respondError(r, w, apierror.Validation("media file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	mediaKind, ok := mediaKindFor(contentType)
	if !ok {
		respondError(r, w, apierror.Validation("media must be an image or video file"))
		return
	}

	mediaBytes, err := io.ReadAll(file)
	if err != nil {
		respondError(r, w, apierror.Validation("failed to read uploaded media"))
		return
	}

	var reporterID *int64
	if p, ok := principalFrom(r.Context()); ok {
		reporterID = &p.UserID
	}

	event := models.NewEvent(req.Latitude, req.Longitude, req.Description, mediaKind, reporterID)
	if err := s.store.CreateEvent(r.Context(), event); err != nil {
		respondError(r, w, err)
		return
	}

	if err := s.hooks.OnSubmission(r.Context(), reporterID); err != nil {
		logRequestWarn(r, "gamification submission hook failed", err)
	}

	if err := s.enqueueProcessing(r.Context(), event, mediaBytes, contentType, false); err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, uploadResponse{
		ID:      event.ID,
		Status:  "processing",
		Message: "event accepted for enrichment",
	})
}

// mediaKindFor classifies an upload's content-type family (§6 "image/* or
// video/*").
func mediaKindFor(contentType string) (models.MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MediaKindImage, true
	case strings.HasPrefix(contentType, "video/"):
		return models.MediaKindVideo, true
	default:
		return "", false
	}
}

// eventListResponse is the §6 Event list response shape.
type eventListResponse struct {
	Events []*models.Event `json:"events"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// handleListEvents serves the filtered, paginated event listing.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.EventFilter{
		Bounds:     parseBounds(q.Get("bounds")),
		Statuses:   parseStatuses(q.Get("status")),
		Severities: parseSeverities(q.Get("severity")),
		Categories: parseCategories(q.Get("category")),
		Limit:      getIntParam(r, "limit", 100),
		Offset:     getIntParam(r, "offset", 0),
	}
	if since := parseSince(q.Get("since")); !since.IsZero() {
		filter.Since = &since
	}

	events, total, err := s.store.ListEvents(r.Context(), filter)
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, eventListResponse{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// handleGetEvent serves a single event's detail, or 404.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chiURLParam(r, "id"))
	if err != nil {
		respondError(r, w, apierror.Validation("invalid event id"))
		return
	}

	event, err := s.store.GetEvent(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(r, w, apierror.NotFound("event not found"))
		return
	}
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// handleUpdateStatus is the operator-only triage command (§4.4): it sets
// status, stamps the reviewer, fires the corresponding gamification hook,
// and publishes a status_change fan-out message.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireStaff(w, r, "triage", "write") {
		return
	}

	id, err := uuid.Parse(chiURLParam(r, "id"))
	if err != nil {
		respondError(r, w, apierror.Validation("invalid event id"))
		return
	}

	var body validation.UpdateStatusRequest
	if err := decodeJSONBody(r, &body); err != nil {
		respondError(r, w, apierror.Validation("malformed request body"))
		return
	}
	if apiErr := validation.ValidateStruct(&body); apiErr != nil {
		respondError(r, w, apiErr)
		return
	}

	event, err := s.store.GetEvent(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(r, w, apierror.NotFound("event not found"))
		return
	}
	if err != nil {
		respondError(r, w, err)
		return
	}

	p, _ := principalFrom(r.Context())
	newStatus := models.Status(body.Status)
	now := requestNow()
	if err := s.store.UpdateTriage(r.Context(), id, store.TriageUpdate{
		Status:     newStatus,
		ReviewerID: p.UserID,
		ReviewedAt: now,
	}); err != nil {
		respondError(r, w, err)
		return
	}
	event.Status = newStatus
	event.ReviewerID = &p.UserID
	event.ReviewedAt = &now

	s.fireTriageGamification(r, event, newStatus)

	s.bus.PublishStatusChange(event)

	respondJSON(w, http.StatusOK, event)
}

// fireTriageGamification applies the verification/rejection effect
// handlers for a status transition (§4.5). Failures are logged, never
// surfaced: gamification bookkeeping never blocks the triage command.
func (s *Server) fireTriageGamification(r *http.Request, event *models.Event, newStatus models.Status) {
	var err error
	switch newStatus {
	case models.StatusVerified:
		err = s.hooks.OnVerification(r.Context(), event.ReporterID, event.Severity == models.SeverityCritical)
	case models.StatusFalseAlarm:
		err = s.hooks.OnRejection(r.Context(), event.ReporterID)
	}
	if err != nil {
		logRequestWarn(r, "gamification triage hook failed", err)
	}
}
