// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import "net/http"

// handleListClusters serves the bbox-filterable cluster listing, capped at
// 100 and restricted to event_count > 1 (enforced by the store query).
func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	bounds := parseBounds(r.URL.Query().Get("bounds"))

	clusters, err := s.store.ListClusters(r.Context(), bounds)
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, clusters)
}
