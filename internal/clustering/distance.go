// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package clustering is the spatio-temporal clustering engine: groups
// incoming events into EventClusters by proximity and recency, and
// escalates cluster severity once enough members accumulate (SPEC_FULL.md
// §4.2). The distance predicate is grounded on the teacher's
// internal/detection/impossible_travel.go haversineDistance.
package clustering

import "math"

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance, in meters, between two
// lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
