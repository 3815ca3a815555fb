// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"net/http"

	"github.com/attentionmap/attention-map-server/internal/gamification"
)

// handleLeaderboard serves the supplemented read-only leaderboard view
// (SPEC_FULL.md §3), ordered by (reputation DESC, verified DESC, submitted
// DESC) and hard-capped at 100 by the store query.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Leaderboard(r.Context())
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// handleBadges serves the fixed badge-family catalogue so a dashboard can
// render progress bars against a profile's current counters.
func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, gamification.Catalogue())
}
