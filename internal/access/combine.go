// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access

import "github.com/oklog/ulid/v2"

// EffectivePermissions folds a member's roles into one permission set.
// Each permission is the logical OR across all roles: a member is as
// privileged as their most generous role. The fold is commutative and
// idempotent, so role order and duplicates never change the result.
// An empty role list grants nothing.
func EffectivePermissions(roles []Role) PermissionSet {
	var s PermissionSet
	for i := range roles {
		s = s.Union(roles[i].Permissions)
	}
	return s
}

// DisplayRole returns the role with the greatest position, used for
// role-colored UI. When several roles share the top position the one with
// the lexicographically smallest ID wins, which keeps the choice stable
// across calls and processes. Returns nil when roles is empty.
func DisplayRole(roles []Role) *Role {
	if len(roles) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(roles); i++ {
		if roles[i].Position > roles[best].Position {
			best = i
			continue
		}
		if roles[i].Position == roles[best].Position && roles[i].ID.Compare(roles[best].ID) < 0 {
			best = i
		}
	}
	top := roles[best]
	return &top
}

// IsOwner reports whether the user owns the group. Owners implicitly hold
// every permission regardless of role assignment.
func IsOwner(userID ulid.ULID, group *Group) bool {
	if group == nil {
		return false
	}
	return userID == group.OwnerID
}
