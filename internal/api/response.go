// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package api is the Query & Command API: a chi router exposing the
// external interface of SPEC_FULL.md §6 over the pipeline, store,
// clustering, bus, auth, and gamification packages. Grounded on the
// teacher's internal/api package (chi_router.go route-group layout,
// handlers_helpers.go response/param helpers), with the response envelope
// replaced by the flatter `{"detail": "..."}` error shape SPEC_FULL.md's
// external interface specifies instead of the teacher's richer
// APIResponse/Metadata wrapper.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/attentionmap/attention-map-server/internal/apierror"
	"github.com/attentionmap/attention-map-server/internal/logging"
)

// respondJSON writes v as a JSON body with the given status code.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

// errorBody is the `{"detail": "..."}` shape SPEC_FULL.md §6 specifies for
// every error response.
type errorBody struct {
	Detail string `json:"detail"`
}

// respondError maps err to its HTTP status and writes the error envelope.
// Unrecognized errors are logged with a correlation id and returned as a
// generic 500, never leaking internal detail (§7 propagation policy).
func respondError(r *http.Request, w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*apierror.Error); ok {
		respondJSON(w, apiErr.StatusCode(), errorBody{Detail: apiErr.Message})
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("unhandled API error")
	respondJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
}
