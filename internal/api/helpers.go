// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/attentionmap/attention-map-server/internal/logging"
)

// chiURLParam reads a path parameter, isolating handlers from the routing
// library's own API.
func chiURLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// decodeJSONBody decodes r's body into v.
func decodeJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseFormFloat parses a multipart form field as a float64, defaulting to
// 0 on absence or malformed input; the validator rejects the resulting
// zero value for required coordinate fields.
func parseFormFloat(r *http.Request, key string) float64 {
	v, err := strconv.ParseFloat(r.FormValue(key), 64)
	if err != nil {
		return 0
	}
	return v
}

// requestNow returns the current UTC instant used to stamp triage reviews.
func requestNow() time.Time { return time.Now().UTC() }

// logRequestWarn logs a non-fatal request-scoped failure at WARN, used for
// effect handlers (gamification) whose errors must never block the
// response they ride alongside.
func logRequestWarn(r *http.Request, msg string, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Msg(msg)
}
