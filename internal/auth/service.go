// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attentionmap/attention-map-server/internal/apierror"
	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// Store is the subset of *store.Store the auth service depends on.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUserEmail(ctx context.Context, id int64, email string) error
}

var _ Store = (*store.Store)(nil)

// Service implements account registration, login, and profile lookup.
type Service struct {
	store   Store
	manager *Manager
}

// NewService builds a Service.
func NewService(s Store, manager *Manager) *Service {
	return &Service{store: s, manager: manager}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, apierror.Unauthorized("invalid username or password")
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("look up user: %w", err)
	}

	if !CheckPassword(u.PasswordHash, password) {
		return TokenPair{}, apierror.Unauthorized("invalid username or password")
	}

	pair, err := s.manager.IssuePair(u.ID, u.Staff)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}
	return pair, nil
}

// CurrentUser resolves the bearer subject to its account record.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierror.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return u, nil
}

// UpdateEmail applies a self-service email change and returns the updated
// account record.
func (s *Service) UpdateEmail(ctx context.Context, userID int64, email string) (*models.User, error) {
	if err := s.store.UpdateUserEmail(ctx, userID, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("user not found")
		}
		return nil, fmt.Errorf("update email: %w", err)
	}
	return s.CurrentUser(ctx, userID)
}
