// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package gamification implements the pure effect handlers fired on three
// pipeline edges (submission, verification, rejection), updating a
// reporter's UserProfile counters, reputation, and badge set. Grounded on
// the teacher's pattern of small stateless "hooks" packages reading and
// writing through the store rather than owning their own state (mirrored
// here from internal/detection, which reads events and writes alerts
// through the same store interface it is handed).
package gamification

import (
	"context"
	"errors"
	"fmt"

	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// reputation deltas, §4.5.
const (
	reputationOnVerify      = 10
	reputationCriticalBonus = 25
	reputationOnRejection   = -5
)

// badge marker ids.
const (
	badgeEmergencyResponder = "emergency_responder"
)

// reportsBadgeThresholds, verifiedBadgeThresholds and
// reputationBadgeThresholds are fixed ordered threshold lists mapped to marker ids,
// one family per counter. Award is monotonic set-union: once a threshold
// fires for a profile, the marker stays forever even if the counter were to
// (hypothetically) regress.
var reportsBadgeThresholds = []struct {
	count  int
	marker string
}{
	{1, "reports_1"},
	{10, "reports_10"},
	{50, "reports_50"},
	{100, "reports_100"},
}

var verifiedBadgeThresholds = []struct {
	count  int
	marker string
}{
	{1, "verified_1"},
	{10, "verified_10"},
	{50, "verified_50"},
	{100, "verified_100"},
}

var reputationBadgeThresholds = []struct {
	score  int
	marker string
}{
	{50, "reputation_50"},
	{200, "reputation_200"},
	{500, "reputation_500"},
}

// Family describes one badge family for the read-only badge catalogue.
type Family struct {
	Name       string   `json:"name"`
	Thresholds []int    `json:"thresholds"`
	Markers    []string `json:"markers"`
}

// Catalogue lists the fixed threshold families and the one-shot marker, so
// a dashboard can render progress bars against a user's current counters
// (SPEC_FULL.md's supplemented GET /badges).
func Catalogue() []Family {
	toFamily := func(name string, thresholds []struct {
		count  int
		marker string
	}) Family {
		f := Family{Name: name}
		for _, t := range thresholds {
			f.Thresholds = append(f.Thresholds, t.count)
			f.Markers = append(f.Markers, t.marker)
		}
		return f
	}

	reputationFamily := Family{Name: "reputation"}
	for _, t := range reputationBadgeThresholds {
		reputationFamily.Thresholds = append(reputationFamily.Thresholds, t.score)
		reputationFamily.Markers = append(reputationFamily.Markers, t.marker)
	}

	return []Family{
		toFamily("reports", reportsBadgeThresholds),
		toFamily("verified", verifiedBadgeThresholds),
		reputationFamily,
		{Name: "one_shot", Markers: []string{badgeEmergencyResponder}},
	}
}

// Store is the subset of *store.Store the gamification hooks depend on.
type Store interface {
	GetUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	SaveUserProfile(ctx context.Context, p *models.UserProfile) error
}

var _ Store = (*store.Store)(nil)

// Hooks wires the three pipeline-edge effect handlers to a backing store.
type Hooks struct {
	store Store
}

// New builds a Hooks bound to s.
func New(s Store) *Hooks {
	return &Hooks{store: s}
}

// OnSubmission increments reports_submitted for reporterID and evaluates
// the "reports" badge family. A nil reporterID (anonymous submission) is a
// no-op.
func (h *Hooks) OnSubmission(ctx context.Context, reporterID *int64) error {
	if reporterID == nil {
		return nil
	}
	p, err := h.store.GetUserProfile(ctx, *reporterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load profile: %w", err)
	}

	p.ReportsSubmitted++
	awardThresholds(p, p.ReportsSubmitted, reportsBadgeThresholds)

	if err := h.store.SaveUserProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// OnVerification increments reports_verified, adds the base reputation
// award (plus the critical bonus and one-shot badge when wasCritical),
// and evaluates the "verified" and "reputation" badge families. A nil
// reporterID is a no-op.
func (h *Hooks) OnVerification(ctx context.Context, reporterID *int64, wasCritical bool) error {
	if reporterID == nil {
		return nil
	}
	p, err := h.store.GetUserProfile(ctx, *reporterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load profile: %w", err)
	}

	p.ReportsVerified++
	p.ReputationScore += reputationOnVerify
	if wasCritical {
		p.ReputationScore += reputationCriticalBonus
		p.AwardBadge(badgeEmergencyResponder)
	}

	awardThresholds(p, p.ReportsVerified, verifiedBadgeThresholds)
	awardReputationThresholds(p)

	if err := h.store.SaveUserProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// OnRejection applies the reputation penalty for a report that transitions
// to false_alarm. Badges are never revoked (§3 invariant 9). A nil
// reporterID is a no-op.
func (h *Hooks) OnRejection(ctx context.Context, reporterID *int64) error {
	if reporterID == nil {
		return nil
	}
	p, err := h.store.GetUserProfile(ctx, *reporterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load profile: %w", err)
	}

	p.ReputationScore += reputationOnRejection

	if err := h.store.SaveUserProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// awardThresholds applies every threshold in family whose count has been
// reached or passed, in order.
func awardThresholds(p *models.UserProfile, count int, family []struct {
	count  int
	marker string
}) {
	for _, t := range family {
		if count >= t.count {
			p.AwardBadge(t.marker)
		}
	}
}

// awardReputationThresholds applies every reputation threshold reached by
// p's current score.
func awardReputationThresholds(p *models.UserProfile) {
	for _, t := range reputationBadgeThresholds {
		if p.ReputationScore >= t.score {
			p.AwardBadge(t.marker)
		}
	}
}
