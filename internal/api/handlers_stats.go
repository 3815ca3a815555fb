// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import "net/http"

// summaryResponse mirrors SPEC_FULL.md §6's GET /stats/summary body.
type summaryResponse struct {
	TotalEvents      int            `json:"total_events"`
	EventsByStatus   map[string]int `json:"events_by_status"`
	EventsByCategory map[string]int `json:"events_by_category"`
	EventsBySeverity map[string]int `json:"events_by_severity"`
	ActiveClusters   int            `json:"active_clusters"`
}

func (s *Server) handleSummaryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.SummaryStats(r.Context())
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, summaryResponse{
		TotalEvents:      stats.TotalEvents,
		EventsByStatus:   stats.EventsByStatus,
		EventsByCategory: stats.EventsByCategory,
		EventsBySeverity: stats.EventsBySeverity,
		ActiveClusters:   stats.ActiveClusters,
	})
}
