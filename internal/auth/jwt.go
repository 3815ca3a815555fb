// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package auth issues and verifies the bearer tokens used by the Query &
// Command API's account endpoints (SPEC_FULL.md §4.5). Grounded on the
// teacher's internal/auth/jwt.go JWTManager (HMAC-SHA256 via
// golang-jwt/jwt/v5), extended with a refresh token and bcrypt password
// hashing (golang.org/x/crypto/bcrypt).
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/attentionmap/attention-map-server/internal/config"
)

// Claims identifies the authenticated subject and whether they hold staff
// capabilities (§4.5, §authz).
type Claims struct {
	UserID int64 `json:"uid"`
	Staff  bool  `json:"staff"`
	jwt.RegisteredClaims
}

// TokenPair is the response body of POST /token/pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Manager issues and validates JWTs signed with HMAC-SHA256.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager builds a Manager from the security configuration. cfg.JWTSecret
// must be non-empty; Load() already enforces a 32-character minimum.
func NewManager(cfg *config.SecurityConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("security.jwt_secret is required")
	}
	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// IssuePair creates an access/refresh token pair for userID.
func (m *Manager) IssuePair(userID int64, staff bool) (TokenPair, error) {
	access, err := m.sign(userID, staff, m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(userID, staff, m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *Manager) sign(userID int64, staff bool, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Staff:  staff,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a bearer token, rejecting anything not signed
// with HMAC (algorithm confusion guard, per the teacher's ValidateToken).
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
