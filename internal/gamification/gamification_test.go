// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package gamification

import (
	"context"
	"testing"

	"github.com/attentionmap/attention-map-server/internal/models"
	"github.com/attentionmap/attention-map-server/internal/store"
)

// mockStore is a hand-rolled in-memory Store, mirroring the teacher's
// MockEventStore pattern (a map keyed by id, no external mocking library).
type mockStore struct {
	profiles map[int64]*models.UserProfile
}

func newMockStore() *mockStore {
	return &mockStore{profiles: map[int64]*models.UserProfile{}}
}

func (m *mockStore) seed(p *models.UserProfile) {
	m.profiles[p.UserID] = p
}

func (m *mockStore) GetUserProfile(_ context.Context, userID int64) (*models.UserProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	cp.Badges = append([]string(nil), p.Badges...)
	return &cp, nil
}

func (m *mockStore) SaveUserProfile(_ context.Context, p *models.UserProfile) error {
	cp := *p
	cp.Badges = append([]string(nil), p.Badges...)
	m.profiles[p.UserID] = &cp
	return nil
}

func intPtr(v int64) *int64 { return &v }

// ===================================================================================================
// OnSubmission
// ===================================================================================================

func TestHooks_OnSubmission_NilReporter(t *testing.T) {
	h := New(newMockStore())
	if err := h.OnSubmission(context.Background(), nil); err != nil {
		t.Fatalf("OnSubmission(nil) error = %v, want nil", err)
	}
}

func TestHooks_OnSubmission_UnknownReporter(t *testing.T) {
	h := New(newMockStore())
	if err := h.OnSubmission(context.Background(), intPtr(1)); err != nil {
		t.Fatalf("OnSubmission() on missing profile error = %v, want nil (no-op)", err)
	}
}

func TestHooks_OnSubmission_IncrementsAndAwardsFirstBadge(t *testing.T) {
	s := newMockStore()
	s.seed(models.NewUserProfile(1))
	h := New(s)

	if err := h.OnSubmission(context.Background(), intPtr(1)); err != nil {
		t.Fatalf("OnSubmission() error = %v", err)
	}

	p, _ := s.GetUserProfile(context.Background(), 1)
	if p.ReportsSubmitted != 1 {
		t.Errorf("ReportsSubmitted = %d, want 1", p.ReportsSubmitted)
	}
	if !p.HasBadge("reports_1") {
		t.Errorf("expected reports_1 badge after first submission")
	}
	if p.HasBadge("reports_10") {
		t.Errorf("did not expect reports_10 badge after one submission")
	}
}

func TestHooks_OnSubmission_ThresholdFamily(t *testing.T) {
	s := newMockStore()
	s.seed(&models.UserProfile{UserID: 1, ReportsSubmitted: 9, Badges: []string{"reports_1"}})
	h := New(s)

	if err := h.OnSubmission(context.Background(), intPtr(1)); err != nil {
		t.Fatalf("OnSubmission() error = %v", err)
	}

	p, _ := s.GetUserProfile(context.Background(), 1)
	if p.ReportsSubmitted != 10 {
		t.Errorf("ReportsSubmitted = %d, want 10", p.ReportsSubmitted)
	}
	if !p.HasBadge("reports_10") {
		t.Errorf("expected reports_10 badge to fire at the 10th submission")
	}
	if !p.HasBadge("reports_1") {
		t.Errorf("reports_1 badge must remain after later thresholds fire (monotonic award)")
	}
}

// ===================================================================================================
// OnVerification
// ===================================================================================================

func TestHooks_OnVerification_BaseAward(t *testing.T) {
	s := newMockStore()
	s.seed(models.NewUserProfile(1))
	h := New(s)

	if err := h.OnVerification(context.Background(), intPtr(1), false); err != nil {
		t.Fatalf("OnVerification() error = %v", err)
	}

	p, _ := s.GetUserProfile(context.Background(), 1)
	if p.ReputationScore != reputationOnVerify {
		t.Errorf("ReputationScore = %d, want %d", p.ReputationScore, reputationOnVerify)
	}
	if p.ReportsVerified != 1 {
		t.Errorf("ReportsVerified = %d, want 1", p.ReportsVerified)
	}
	if p.HasBadge(badgeEmergencyResponder) {
		t.Errorf("non-critical verification must not award emergency_responder")
	}
}

func TestHooks_OnVerification_CriticalBonusAndBadge(t *testing.T) {
	s := newMockStore()
	s.seed(models.NewUserProfile(1))
	h := New(s)

	if err := h.OnVerification(context.Background(), intPtr(1), true); err != nil {
		t.Fatalf("OnVerification() error = %v", err)
	}

	p, _ := s.GetUserProfile(context.Background(), 1)
	want := reputationOnVerify + reputationCriticalBonus
	if p.ReputationScore != want {
		t.Errorf("ReputationScore = %d, want %d", p.ReputationScore, want)
	}
	if !p.HasBadge(badgeEmergencyResponder) {
		t.Errorf("critical verification must award emergency_responder")
	}
}

func TestHooks_OnVerification_ReputationThreshold(t *testing.T) {
	s := newMockStore()
	s.seed(&models.UserProfile{UserID: 1, ReputationScore: 45})
	h := New(s)

	if err := h.OnVerification(context.Background(), intPtr(1), false); err != nil {
		t.Fatalf("OnVerification() error = %v", err)
	}

	p, _ := s.GetUserProfile(context.Background(), 1)
	if p.ReputationScore != 55 {
		t.Errorf("ReputationScore = %d, want 55", p.ReputationScore)
	}
	if !p.HasBadge("reputation_50") {
		t.Errorf("expected reputation_50 badge once score crosses 50")
	}
}

func TestHooks_OnVerification_NilReporter(t *testing.T) {
	h := New(newMockStore())
	if err := h.OnVerification(context.Background(), nil, true); err != nil {
		t.Fatalf("OnVerification(nil) error = %v, want nil", err)
	}
}

// ===================================================================================================
// OnRejection
// ===================================================================================================

func TestHooks_OnRejection_AppliesPenaltyWithoutRevokingBadges(t *testing.T) {
	s := newMockStore()
	s.seed(&models.UserProfile{UserID: 1, ReputationScore: 10, Badges: []string{"reports_1"}})
	h := New(s)

	if err := h.OnRejection(context.Background(), intPtr(1)); err != nil {
		t.Fatalf("OnRejection() error = %v", err)
	}

	p, _ := s.GetUserProfile(context.Background(), 1)
	if p.ReputationScore != 10+reputationOnRejection {
		t.Errorf("ReputationScore = %d, want %d", p.ReputationScore, 10+reputationOnRejection)
	}
	if !p.HasBadge("reports_1") {
		t.Errorf("rejection must never revoke an already-awarded badge")
	}
}

func TestHooks_OnRejection_NilReporter(t *testing.T) {
	h := New(newMockStore())
	if err := h.OnRejection(context.Background(), nil); err != nil {
		t.Fatalf("OnRejection(nil) error = %v, want nil", err)
	}
}

// ===================================================================================================
// Catalogue
// ===================================================================================================

func TestCatalogue_FamiliesAndOneShot(t *testing.T) {
	families := Catalogue()

	byName := map[string]Family{}
	for _, f := range families {
		byName[f.Name] = f
	}

	for _, name := range []string{"reports", "verified", "reputation", "one_shot"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("Catalogue() missing family %q", name)
		}
	}

	oneShot := byName["one_shot"]
	if len(oneShot.Markers) != 1 || oneShot.Markers[0] != badgeEmergencyResponder {
		t.Errorf("one_shot family markers = %v, want [%s]", oneShot.Markers, badgeEmergencyResponder)
	}

	reports := byName["reports"]
	if len(reports.Thresholds) != len(reports.Markers) {
		t.Errorf("reports family thresholds/markers length mismatch: %d vs %d", len(reports.Thresholds), len(reports.Markers))
	}
}
