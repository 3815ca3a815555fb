// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/attentionmap/attention-map-server/internal/auth"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

type principalKey struct{}

// principal is the authenticated bearer-token subject attached to a
// request's context by authenticate.
type principal struct {
	UserID int64
	Staff  bool
}

// principalFrom extracts the authenticated principal, if any.
func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

// authenticate parses a bearer token if present and attaches the resulting
// principal to the request context; it never itself rejects a request —
// individual handlers that require staff decide whether to reject (§4.4's
// operator-only status command is the only one that does).
func authenticate(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := manager.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal{UserID: claims.UserID, Staff: claims.Staff})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestIDLogging assigns a request id (reusing chi's RequestID
// middleware) and attaches a request-scoped logger, mirroring the
// teacher's RequestIDWithLogging.
func requestIDLogging(next http.Handler) http.Handler {
	return chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())
		ctx := logging.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// prometheusMetrics times every request and records it under its matched
// route pattern, following the teacher's middleware.PrometheusMetrics.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, http.StatusText(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
