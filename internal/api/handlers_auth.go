// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"net/http"

	"github.com/attentionmap/attention-map-server/internal/apierror"
	"github.com/attentionmap/attention-map-server/internal/validation"
)

// handleRegister creates an account with a bcrypt-hashed password (§6
// "Auth surface").
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body validation.RegisterRequest
	if err := decodeJSONBody(r, &body); err != nil {
		respondError(r, w, apierror.Validation("malformed request body"))
		return
	}
	if apiErr := validation.ValidateStruct(&body); apiErr != nil {
		respondError(r, w, apiErr)
		return
	}

	user, err := s.authSvc.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// handleTokenPair exchanges username/password credentials for an access +
// refresh bearer token pair.
func (s *Server) handleTokenPair(w http.ResponseWriter, r *http.Request) {
	var body validation.LoginRequest
	if err := decodeJSONBody(r, &body); err != nil {
		respondError(r, w, apierror.Validation("malformed request body"))
		return
	}
	if apiErr := validation.ValidateStruct(&body); apiErr != nil {
		respondError(r, w, apiErr)
		return
	}

	pair, err := s.authSvc.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// handleGetMe resolves the bearer subject to its account record.
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		respondError(r, w, apierror.Unauthorized("authentication required"))
		return
	}

	user, err := s.authSvc.CurrentUser(r.Context(), p.UserID)
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// patchMeRequest is the body of PATCH /auth/me: the only self-service
// mutable field is email (username/password changes are out of scope for
// this surface, §6).
type patchMeRequest struct {
	Email string `validate:"omitempty,email"`
}

// handlePatchMe applies a self-service email change, or returns the
// account unchanged if no new email was supplied.
func (s *Server) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		respondError(r, w, apierror.Unauthorized("authentication required"))
		return
	}

	var body patchMeRequest
	if err := decodeJSONBody(r, &body); err != nil {
		respondError(r, w, apierror.Validation("malformed request body"))
		return
	}
	if apiErr := validation.ValidateStruct(&body); apiErr != nil {
		respondError(r, w, apiErr)
		return
	}

	if body.Email == "" {
		user, err := s.authSvc.CurrentUser(r.Context(), p.UserID)
		if err != nil {
			respondError(r, w, err)
			return
		}
		respondJSON(w, http.StatusOK, user)
		return
	}

	user, err := s.authSvc.UpdateEmail(r.Context(), p.UserID, body.Email)
	if err != nil {
		respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
