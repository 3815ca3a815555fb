// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attentionmap/attention-map-server/internal/models"
)

// Warsaw coordinates used by SPEC_FULL.md's clustering scenarios (S2/S4).
const (
	warsawLat, warsawLon = 52.2297, 21.0122
	londonLat, londonLon = 51.5072, -0.1276
)

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(warsawLat, warsawLon, warsawLat, warsawLon)
	assert.InDelta(t, 0.0, d, 1e-6)
}

func TestHaversine_WithinJoinRadius(t *testing.T) {
	// ~13 m apart, grounded on spec.md scenario S2's three close-together events.
	d := Haversine(52.2297, 21.0122, 52.2298, 21.0123)
	assert.Less(t, d, 100.0)
}

func TestHaversine_AcrossCities(t *testing.T) {
	d := Haversine(warsawLat, warsawLon, londonLat, londonLon)
	assert.Greater(t, d, 1_000_000.0, "Warsaw and London are well over 1000km apart")
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(warsawLat, warsawLon, londonLat, londonLon)
	b := Haversine(londonLat, londonLon, warsawLat, warsawLon)
	assert.InDelta(t, a, b, 1e-9)
}

func TestEscalatedSeverity_BelowThresholds(t *testing.T) {
	sev := escalatedSeverity([]models.Severity{models.SeverityLow, models.SeverityMedium}, 3, 5)
	assert.Equal(t, models.SeverityMedium, sev, "baseline is max member severity below the High threshold")
}

func TestEscalatedSeverity_HighThreshold(t *testing.T) {
	// §4.2 / testable property 4: event_count in [3,4] => computed_severity >= High.
	sev := escalatedSeverity([]models.Severity{models.SeverityLow, models.SeverityLow, models.SeverityLow}, 3, 5)
	assert.Equal(t, models.SeverityHigh, sev)
}

func TestEscalatedSeverity_CriticalThreshold(t *testing.T) {
	// testable property 4: event_count >= 5 => computed_severity == Critical.
	sev := escalatedSeverity([]models.Severity{
		models.SeverityLow, models.SeverityLow, models.SeverityLow, models.SeverityLow, models.SeverityLow,
	}, 3, 5)
	assert.Equal(t, models.SeverityCritical, sev)
}

func TestEscalatedSeverity_NeverDowngradesMemberMax(t *testing.T) {
	// A single Critical member below either threshold still dominates the baseline.
	sev := escalatedSeverity([]models.Severity{models.SeverityCritical}, 3, 5)
	assert.Equal(t, models.SeverityCritical, sev)
}
