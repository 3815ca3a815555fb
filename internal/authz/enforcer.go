// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package authz provides the capability check gating operator-only
// endpoints (the triage status command, §4.4, §authz). Grounded on the
// teacher's internal/authz package: a Casbin SyncedEnforcer loaded from an
// embedded model/policy pair, simplified here to a two-role model (staff
// vs. citizen) matching SPEC_FULL.md's actual capability surface rather
// than the teacher's full hierarchical RBAC.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Role names used in policy.csv.
const (
	RoleStaff   = "staff"
	RoleCitizen = "citizen"
)

// Resource/action pairs checked by the API layer.
const (
	ResourceTriage = "triage"
	ActionWrite    = "write"
)

// Enforcer wraps a Casbin SyncedEnforcer built from the embedded RBAC
// policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the embedded model and policy into a fresh enforcer.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, fmt.Errorf("load embedded policy: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// loadEmbeddedPolicy parses the compiled-in policy.csv directly into the
// enforcer, avoiding a dependency on a file-backed or string Casbin
// adapter for what is a handful of static rules.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, csv string) error {
	for _, line := range strings.Split(csv, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		switch fields[0] {
		case "p":
			if _, err := enforcer.AddPolicy(fields[1:]); err != nil {
				return fmt.Errorf("add policy %v: %w", fields[1:], err)
			}
		case "g":
			if _, err := enforcer.AddGroupingPolicy(fields[1:]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", fields[1:], err)
			}
		}
	}
	return nil
}

// Can reports whether role may perform action on resource.
func (e *Enforcer) Can(role, resource, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("enforce policy: %w", err)
	}
	return allowed, nil
}

// RoleFor derives the policy role for a subject from the staff flag carried
// in its bearer token claims.
func RoleFor(staff bool) string {
	if staff {
		return RoleStaff
	}
	return RoleCitizen
}
