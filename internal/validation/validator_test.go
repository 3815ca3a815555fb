// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package validation

import (
	"strings"
	"testing"
)

// ===================================================================================================
// ValidateStruct: UploadEventRequest
// ===================================================================================================

func TestValidateStruct_UploadEventRequest_Valid(t *testing.T) {
	req := UploadEventRequest{Latitude: 40.7128, Longitude: -74.0060, Description: "a report"}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("ValidateStruct() error = %v, want nil", err)
	}
}

func TestValidateStruct_UploadEventRequest_OutOfRangeLatitude(t *testing.T) {
	req := UploadEventRequest{Latitude: 200, Longitude: 0.0001}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() error = nil, want a validation error for out-of-range latitude")
	}
	if !strings.Contains(err.Message, "Latitude") {
		t.Errorf("Message = %q, want it to mention Latitude", err.Message)
	}
}

func TestValidateStruct_UploadEventRequest_DescriptionTooLong(t *testing.T) {
	req := UploadEventRequest{Latitude: 1, Longitude: 1, Description: strings.Repeat("x", 2001)}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() error = nil, want a validation error for an over-length description")
	}
	if !strings.Contains(err.Message, "2000 characters") {
		t.Errorf("Message = %q, want it to mention the 2000 character limit", err.Message)
	}
}

func TestValidateStruct_UploadEventRequest_JoinsMultipleFieldErrors(t *testing.T) {
	req := UploadEventRequest{Latitude: 0, Longitude: 0}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() error = nil, want errors for missing coordinates")
	}
	if !strings.Contains(err.Message, "; ") {
		t.Errorf("Message = %q, want multiple field errors joined with \"; \"", err.Message)
	}
}

// ===================================================================================================
// ValidateStruct: UpdateStatusRequest
// ===================================================================================================

func TestValidateStruct_UpdateStatusRequest_OneOf(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr bool
	}{
		{"new", "new", true},
		{"reviewing", "reviewing", false},
		{"verified", "verified", false},
		{"resolved", "resolved", false},
		{"false_alarm", "false_alarm", false},
		{"unrecognized", "pending", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&UpdateStatusRequest{Status: tt.status})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct(%q) error = %v, wantErr %v", tt.status, err, tt.wantErr)
			}
		})
	}
}

// ===================================================================================================
// ValidateStruct: RegisterRequest / LoginRequest
// ===================================================================================================

func TestValidateStruct_RegisterRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"valid", RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "supersecret"}, false},
		{"short username", RegisterRequest{Username: "ab", Email: "a@example.com", Password: "supersecret"}, true},
		{"bad email", RegisterRequest{Username: "alice", Email: "not-an-email", Password: "supersecret"}, true},
		{"short password", RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStruct_LoginRequest_RequiresBothFields(t *testing.T) {
	if err := ValidateStruct(&LoginRequest{Username: "alice", Password: "x"}); err != nil {
		t.Errorf("ValidateStruct() error = %v, want nil", err)
	}
	if err := ValidateStruct(&LoginRequest{Password: "x"}); err == nil {
		t.Error("ValidateStruct() error = nil, want error for missing username")
	}
}

// ===================================================================================================
// ValidateStruct: EventFilterRequest
// ===================================================================================================

func TestValidateStruct_EventFilterRequest_LimitBounds(t *testing.T) {
	if err := ValidateStruct(&EventFilterRequest{Limit: 50}); err != nil {
		t.Errorf("ValidateStruct() error = %v, want nil", err)
	}
	if err := ValidateStruct(&EventFilterRequest{Limit: 501}); err == nil {
		t.Error("ValidateStruct() error = nil, want error for a limit above 500")
	}
	if err := ValidateStruct(&EventFilterRequest{Limit: 0}); err == nil {
		t.Error("ValidateStruct() error = nil, want error for a limit below 1")
	}
}

// ===================================================================================================
// Singleton
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := getValidator()
	v2 := getValidator()
	if v1 != v2 {
		t.Error("getValidator() should return the same singleton instance across calls")
	}
}
