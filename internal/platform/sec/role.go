// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/taibuivan/crm/pkg/slice"
)

// # User Roles

// Role is one entry of the fixed role enumeration granted to an account.
//
// Roles are unordered capabilities, not ranks: holding [RoleModerator] says
// nothing about [RoleAccountant].
type Role string

const (
	// Global override: passes every role requirement.
	RoleAdmin Role = "admin"

	// Manages client and contact records.
	RoleModerator Role = "moderator"

	// Manages billing-related client records.
	RoleAccountant Role = "accountant"

	// Authors content attached to clients.
	RoleWriter Role = "writer"

	// Read-mostly support staff.
	RoleSupport Role = "support"

	// Baseline role of every registered account.
	RoleMember Role = "member"
)

// Roles lists the full enumeration in declaration order.
var Roles = []Role{RoleAdmin, RoleModerator, RoleAccountant, RoleWriter, RoleSupport, RoleMember}

// ParseRole converts a raw string into a known [Role].
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range Roles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// # Role Sets

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles, collapsing duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// ParseRoleSet builds a set from stored strings. Unknown values are dropped so
// a corrupted row can never grant more than it names.
func ParseRoleSet(raw []string) RoleSet {
	set := make(RoleSet, len(raw))
	for _, value := range raw {
		if role, ok := ParseRole(value); ok {
			set[role] = struct{}{}
		}
	}
	return set
}

// Has reports whether role is in the set.
func (set RoleSet) Has(role Role) bool {
	_, ok := set[role]
	return ok
}

// IsSuperuser reports whether the set carries the [RoleAdmin] override.
func (set RoleSet) IsSuperuser() bool {
	return set.Has(RoleAdmin)
}

// Intersects reports whether the two sets share at least one role.
func (set RoleSet) Intersects(other RoleSet) bool {
	for role := range set {
		if other.Has(role) {
			return true
		}
	}
	return false
}

// IsMemberOnly reports whether the set is exactly {member}.
func (set RoleSet) IsMemberOnly() bool {
	return len(set) == 1 && set.Has(RoleMember)
}

// Slice returns the roles sorted alphabetically, for storage and JSON.
func (set RoleSet) Slice() []Role {
	roles := make([]Role, 0, len(set))
	for role := range set {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Strings returns [RoleSet.Slice] as plain strings (postgres text[]).
func (set RoleSet) Strings() []string {
	return slice.Map(set.Slice(), func(role Role) string { return string(role) })
}

// MarshalJSON renders the set as a sorted JSON array.
func (set RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Strings())
}

// UnmarshalJSON accepts a JSON array of role names.
func (set *RoleSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*set = ParseRoleSet(raw)
	return nil
}

// # Authorization Policy

// Authorize evaluates the coarse role policy guarding every protected endpoint.
//
//  1. An empty requirement, or exactly {member}, admits any authenticated user.
//  2. A superuser passes unconditionally.
//  3. Otherwise at least one required role must be held (ANY-match).
func Authorize(held, required RoleSet) bool {
	if len(required) == 0 || required.IsMemberOnly() {
		return true
	}
	if held.IsSuperuser() {
		return true
	}
	return held.Intersects(required)
}
