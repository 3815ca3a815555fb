// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package apierror maps the error kinds of SPEC_FULL.md §7 to HTTP status
// codes and the `{"detail": "..."}` response envelope, grounded on the
// teacher's internal/api/errors.go convention of a typed sentinel plus a
// status-code table rather than a bespoke exception hierarchy.
package apierror

import "net/http"

// Kind identifies one of the error kinds from §7. It is not a Go error type
// hierarchy — callers compare Kind values, not type-assert error chains.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// Error is a boundary error carrying the HTTP-relevant kind and a
// human-readable message safe to return verbatim in the `detail` field.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation builds a 400-mapped error.
func Validation(message string) *Error { return &Error{Kind: KindValidation, Message: message} }

// Unauthorized builds a 401-mapped error.
func Unauthorized(message string) *Error { return &Error{Kind: KindUnauthorized, Message: message} }

// Forbidden builds a 403-mapped error.
func Forbidden(message string) *Error { return &Error{Kind: KindForbidden, Message: message} }

// NotFound builds a 404-mapped error.
func NotFound(message string) *Error { return &Error{Kind: KindNotFound, Message: message} }

// StatusCode returns the HTTP status for e's kind, defaulting to 500 for any
// kind not explicitly enumerated (including KindInternal).
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
