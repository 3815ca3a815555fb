// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"encoding/json"
	"net/http"

	"github.com/attentionmap/attention-map-server/internal/logging"
)

// handleStream serves the long-lived text-event-stream subscription (§4.3,
// §6). The connection ends when the client drops, detected via the
// request's context cancellation; the bus releases the subscription
// promptly on the deferred unsubscribe call.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no") // disable upstream proxy buffering
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := writeFrame(w, msg.Type, msg.Data); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("stream write failed, closing subscription")
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, eventName string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + eventName + "\n")); err != nil {
		return err
	}
	if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
		return err
	}
	return nil
}
