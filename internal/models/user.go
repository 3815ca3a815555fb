// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package models

import "time"

// User is a registered account. Anonymous reporters have no User row and
// are represented by a nil ReporterID on Event.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Staff        bool      `json:"-" db:"staff"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserProfile is the 1-to-1 gamification record for a User (§3, §4.5).
type UserProfile struct {
	UserID           int64    `json:"user_id" db:"user_id"`
	ReportsSubmitted int      `json:"reports_submitted" db:"reports_submitted"`
	ReportsVerified  int      `json:"reports_verified" db:"reports_verified"`
	Badges           []string `json:"badges" db:"-"`
	ReputationScore  int      `json:"reputation_score" db:"reputation_score"`
}

// NewUserProfile returns the zero-value profile created lazily on first
// registration or first report (§3 Lifecycles).
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{UserID: userID, Badges: []string{}}
}

// HasBadge reports whether marker has already been awarded.
func (p *UserProfile) HasBadge(marker string) bool {
	for _, b := range p.Badges {
		if b == marker {
			return true
		}
	}
	return false
}

// AwardBadge adds marker to the badge set if not already present. Badge
// awards are monotonic: automated paths never revoke a marker (§3
// invariant 9).
func (p *UserProfile) AwardBadge(marker string) (awarded bool) {
	if p.HasBadge(marker) {
		return false
	}
	p.Badges = append(p.Badges, marker)
	return true
}
