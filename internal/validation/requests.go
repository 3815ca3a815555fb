// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package validation also holds the request structs the HTTP layer
// validates, following the teacher's internal/api/requests.go convention of
// a dedicated struct per endpoint carrying `validate:"..."` tags rather than
// validating ad-hoc query/body maps inline in the handler.
package validation

// EventFilterRequest validates the query parameters accepted by the events
// listing endpoint.
type EventFilterRequest struct {
	MinLat     float64 `validate:"omitempty,latitude"`
	MinLng     float64 `validate:"omitempty,longitude"`
	MaxLat     float64 `validate:"omitempty,latitude"`
	MaxLng     float64 `validate:"omitempty,longitude"`
	Statuses   string  `validate:"omitempty"`
	Severities string  `validate:"omitempty"`
	Categories string  `validate:"omitempty"`
	Since      string  `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit      int     `validate:"min=1,max=500"`
	Offset     int     `validate:"min=0"`
}

// UploadEventRequest validates the multipart form fields accompanying a
// submitted incident report.
type UploadEventRequest struct {
	Latitude    float64 `validate:"required,latitude"`
	Longitude   float64 `validate:"required,longitude"`
	Description string  `validate:"omitempty,max=2000"`
}

// UpdateStatusRequest validates the body of the status-transition endpoint.
type UpdateStatusRequest struct {
	Status string `validate:"required,oneof=reviewing verified resolved false_alarm"`
}

// RegisterRequest validates the body of the account registration endpoint.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
}

// LoginRequest validates the body of the credential login endpoint.
type LoginRequest struct {
	Username string `validate:"required,min=1"`
	Password string `validate:"required,min=1"`
}
