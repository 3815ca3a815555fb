// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// getIntParam extracts an integer query parameter, falling back to
// defaultValue on absence or malformed input (§6 "invalid filter values are
// silently ignored, not rejected").
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseCommaSeparated splits a comma-separated query value, trimming
// whitespace and dropping empty segments.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseBounds parses a "lat1,lng1,lat2,lng2" query value into a
// *store.BoundingBox, normalizing min/max order. Returns nil on any
// malformed input, per the "silently ignored" filter policy.
func parseBounds(value string) *store.BoundingBox {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return nil
	}
	nums := make([]float64, 4)
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil
		}
		nums[i] = n
	}
	lat1, lng1, lat2, lng2 := nums[0], nums[1], nums[2], nums[3]
	b := &store.BoundingBox{MinLat: lat1, MinLng: lng1, MaxLat: lat2, MaxLng: lng2}
	if b.MinLat > b.MaxLat {
		b.MinLat, b.MaxLat = b.MaxLat, b.MinLat
	}
	if b.MinLng > b.MaxLng {
		b.MinLng, b.MaxLng = b.MaxLng, b.MinLng
	}
	return b
}

// parseStatuses filters a comma-separated status list down to recognized
// enum values.
func parseStatuses(value string) []models.Status {
	var out []models.Status
	for _, s := range parseCommaSeparated(value) {
		status := models.Status(s)
		if models.ValidStatus(status) {
			out = append(out, status)
		}
	}
	return out
}

// parseSeverities filters a comma-separated severity list down to
// recognized enum values.
func parseSeverities(value string) []models.Severity {
	var out []models.Severity
	for _, s := range parseCommaSeparated(value) {
		n, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		sev := models.Severity(n)
		if models.ValidSeverity(sev) {
			out = append(out, sev)
		}
	}
	return out
}

// parseCategories filters a comma-separated category list down to
// recognized enum values.
func parseCategories(value string) []models.Category {
	var out []models.Category
	for _, c := range parseCommaSeparated(value) {
		category := models.Category(c)
		if models.ValidCategory(category) {
			out = append(out, category)
		}
	}
	return out
}

// parseSince parses an RFC3339 "since" lower bound, returning the zero
// time (no filter) on absence or malformed input.
func parseSince(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
