// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/attentionmap/attention-map-server/internal/models"
)

const userSelectColumns = `SELECT id, username, email, password_hash, staff, created_at`

// CreateUser inserts a new account, allocating its id from users_id_seq, and
// seeds a zero-value profile alongside it.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT nextval('users_id_seq')").Scan(&u.ID); err != nil {
			return fmt.Errorf("allocate user id: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, staff, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Staff, u.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_profiles (user_id, reports_submitted, reports_verified, badges, reputation_score)
			VALUES (?, 0, 0, '[]', 0)`, u.ID)
		if err != nil {
			return fmt.Errorf("seed user profile: %w", err)
		}
		return nil
	})
}

// GetUserByUsername looks up an account by username (login, §4.5).
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, userSelectColumns+" FROM users WHERE username = ?", username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// GetUser looks up an account by id (bearer-token subject resolution).
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, userSelectColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateUserEmail applies a self-service profile edit (PATCH /auth/me).
func (s *Store) UpdateUserEmail(ctx context.Context, id int64, email string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.conn.ExecContext(ctx, "UPDATE users SET email = ? WHERE id = ?", email, id)
	if err != nil {
		return fmt.Errorf("update user email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Staff, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserProfile fetches the gamification rollup for a user.
func (s *Store) GetUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.conn.QueryRowContext(ctx, `
		SELECT user_id, reports_submitted, reports_verified, badges, reputation_score
		FROM user_profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return p, nil
}

// SaveUserProfile overwrites a profile's mutable fields (submitted/verified
// counters, badge set, reputation score) after a gamification hook runs.
func (s *Store) SaveUserProfile(ctx context.Context, p *models.UserProfile) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	badges, err := json.Marshal(p.Badges)
	if err != nil {
		return fmt.Errorf("marshal badges: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		UPDATE user_profiles
		SET reports_submitted = ?, reports_verified = ?, badges = ?, reputation_score = ?
		WHERE user_id = ?`,
		p.ReportsSubmitted, p.ReportsVerified, string(badges), p.ReputationScore, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("save user profile: %w", err)
	}
	return nil
}

// LeaderboardEntry is one ranked row of the supplemented leaderboard
// endpoint (SPEC_FULL.md §3).
type LeaderboardEntry struct {
	UserID           int64
	Username         string
	ReputationScore  int
	ReportsVerified  int
	ReportsSubmitted int
	Badges           []string
}

// Leaderboard ranks users by reputation, then verified count, then
// submitted count, capped at 100.
func (s *Store) Leaderboard(ctx context.Context) ([]*LeaderboardEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT p.user_id, u.username, p.reputation_score, p.reports_verified, p.reports_submitted, p.badges
		FROM user_profiles p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.reputation_score DESC, p.reports_verified DESC, p.reports_submitted DESC
		LIMIT 100`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var badgesJSON string
		if err := rows.Scan(&e.UserID, &e.Username, &e.ReputationScore, &e.ReportsVerified, &e.ReportsSubmitted, &badgesJSON); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		if err := json.Unmarshal([]byte(badgesJSON), &e.Badges); err != nil {
			return nil, fmt.Errorf("unmarshal badges: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	var p models.UserProfile
	var badgesJSON string
	if err := row.Scan(&p.UserID, &p.ReportsSubmitted, &p.ReportsVerified, &badgesJSON, &p.ReputationScore); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(badgesJSON), &p.Badges); err != nil {
		return nil, fmt.Errorf("unmarshal badges: %w", err)
	}
	return &p, nil
}
