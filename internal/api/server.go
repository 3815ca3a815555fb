// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/attentionmap/attention-map-server/internal/apierror"
	"github.com/attentionmap/attention-map-server/internal/auth"
	"github.com/attentionmap/attention-map-server/internal/authz"
	"github.com/attentionmap/attention-map-server/internal/bus"
	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/gamification"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/queue"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// Server holds every collaborator the HTTP layer dispatches to. It has no
// business logic of its own beyond request parsing, auth/authz gating, and
// response shaping — all per SPEC_FULL.md §6.
type Server struct {
	cfg         *config.ServerConfig
	store       *store.Store
	queue       queue.Queue
	bus         *bus.Bus
	authSvc     *auth.Service
	authManager *auth.Manager
	enforcer    *authz.Enforcer
	hooks       *gamification.Hooks
}

// NewServer builds a Server from its already-constructed collaborators.
func NewServer(
	cfg *config.ServerConfig,
	s *store.Store,
	q queue.Queue,
	b *bus.Bus,
	authSvc *auth.Service,
	authManager *auth.Manager,
	enforcer *authz.Enforcer,
	hooks *gamification.Hooks,
) *Server {
	return &Server{
		cfg:         cfg,
		store:       s,
		queue:       q,
		bus:         b,
		authSvc:     authSvc,
		authManager: authManager,
		enforcer:    enforcer,
		hooks:       hooks,
	}
}

// Router assembles the full chi route tree, grounded on the teacher's
// chi_router.go SetupChi layout (global middleware stack, then route
// groups), pared down to this module's capability surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(prometheusMetrics)
	r.Use(authenticate(s.authManager))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/events/upload", s.handleUpload)
		r.Get("/events", s.handleListEvents)
		r.Get("/events/{id}", s.handleGetEvent)
		r.Patch("/events/{id}/status", s.handleUpdateStatus)
		r.Get("/events/stream", s.handleStream)

		r.Get("/clusters", s.handleListClusters)

		r.Get("/stats/summary", s.handleSummaryStats)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/badges", s.handleBadges)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/token/pair", s.handleTokenPair)
		r.Get("/auth/me", s.handleGetMe)
		r.Patch("/auth/me", s.handlePatchMe)
	})

	return r
}

// requireStaff enforces the operator capability check (§authz) for the
// given resource/action pair, writing a 401/403 response and returning
// false if the caller may not proceed.
func (s *Server) requireStaff(w http.ResponseWriter, r *http.Request, resource, action string) bool {
	p, ok := principalFrom(r.Context())
	if !ok {
		respondError(r, w, apierror.Unauthorized("authentication required"))
		return false
	}
	role := authz.RoleFor(p.Staff)
	allowed, err := s.enforcer.Can(role, resource, action)
	if err != nil || !allowed {
		respondError(r, w, apierror.Forbidden("insufficient privileges"))
		return false
	}
	return true
}

// enqueueProcessing submits a pipeline job without blocking on its
// completion (§2 "must not block on pipeline completion").
func (s *Server) enqueueProcessing(ctx context.Context, event *models.Event, mediaBytes []byte, mediaContentType string, reprocess bool) error {
	return s.queue.Enqueue(ctx, queue.Job{
		EventID:          event.ID,
		Reprocess:        reprocess,
		MediaBytes:       mediaBytes,
		MediaContentType: mediaContentType,
	})
}
