// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package access implements role-based authorization for Syncora.
//
// Every decision is a pure function of the snapshots passed in: role
// definitions, a member's role set, and channel allow-lists are supplied by
// the caller, never fetched here. There is no cached authorization state to
// invalidate; callers re-fetch snapshots on change-feed notifications and
// re-run the checks.
package access

import (
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/syncora/syncora/internal/observability"
)

// Authorizer is the single call surface for authorization decisions.
// It performs no I/O and never mutates role or membership state.
type Authorizer struct {
	logger *slog.Logger
}

// NewAuthorizer creates an Authorizer. A nil logger falls back to the
// process default.
func NewAuthorizer(logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{logger: logger}
}

// ResolveRoles maps a member's role ids onto the group's role definitions.
// A role id that does not resolve, or that resolves to a role of another
// group, is a data-integrity fault: it is logged and dropped so the
// permission computation degrades as if the role were absent rather than
// failing the whole check.
func (a *Authorizer) ResolveRoles(member *Member, groupRoles []Role) []Role {
	if member == nil {
		return nil
	}
	byID := make(map[ulid.ULID]Role, len(groupRoles))
	for _, r := range groupRoles {
		byID[r.ID] = r
	}
	resolved := make([]Role, 0, len(member.RoleIDs))
	for _, id := range member.RoleIDs {
		role, ok := byID[id]
		if !ok {
			a.logger.Warn("dropping dangling role reference",
				"member_id", member.ID.String(),
				"role_id", id.String())
			continue
		}
		if role.GroupID != member.GroupID {
			a.logger.Warn("dropping cross-group role reference",
				"member_id", member.ID.String(),
				"role_id", id.String(),
				"role_group_id", role.GroupID.String(),
				"member_group_id", member.GroupID.String())
			continue
		}
		resolved = append(resolved, role)
	}
	return resolved
}

// RequirePermission checks that the member's effective permissions grant p.
// The group owner passes every check regardless of role assignment.
// Returns nil on success or an error wrapping ErrPermissionDenied.
func (a *Authorizer) RequirePermission(group *Group, member *Member, roles []Role, p Permission) error {
	if member == nil {
		observability.RecordAuthzDecision("denied")
		return oops.In("access").Code("PERMISSION_DENIED").
			With("permission", p.String()).
			Wrap(ErrPermissionDenied)
	}
	if IsOwner(member.UserID, group) {
		observability.RecordAuthzDecision("allowed")
		return nil
	}
	if EffectivePermissions(roles).Has(p) {
		observability.RecordAuthzDecision("allowed")
		return nil
	}
	observability.RecordAuthzDecision("denied")
	return oops.In("access").Code("PERMISSION_DENIED").
		With("member_id", member.ID.String()).
		With("permission", p.String()).
		Wrap(ErrPermissionDenied)
}

// RequireChannelAccess checks that the member may see and use the channel.
// Returns an error wrapping ErrNotFound when the channel belongs to another
// group, ErrPermissionDenied when the member cannot view it, nil otherwise.
// Group owners can view every channel in their group, restricted or not.
func (a *Authorizer) RequireChannelAccess(group *Group, member *Member, channel *Channel) error {
	if channel == nil || member == nil {
		return oops.In("access").Code("CHANNEL_NOT_FOUND").Wrap(ErrNotFound)
	}
	if channel.GroupID != member.GroupID {
		return oops.In("access").Code("CHANNEL_NOT_FOUND").
			With("channel_id", channel.ID.String()).
			With("member_group_id", member.GroupID.String()).
			Wrap(ErrNotFound)
	}
	if IsOwner(member.UserID, group) {
		observability.RecordAuthzDecision("allowed")
		return nil
	}
	if CanView(channel, member) {
		observability.RecordAuthzDecision("allowed")
		return nil
	}
	observability.RecordAuthzDecision("denied")
	return oops.In("access").Code("PERMISSION_DENIED").
		With("member_id", member.ID.String()).
		With("channel_id", channel.ID.String()).
		Wrap(ErrPermissionDenied)
}

// FilterVisibleChannels returns the channels the member may view,
// preserving input order. Channel lists built for sidebars must go through
// this filter even when the full list is cached elsewhere.
func (a *Authorizer) FilterVisibleChannels(channels []*Channel, group *Group, member *Member) []*Channel {
	visible := make([]*Channel, 0, len(channels))
	for _, ch := range channels {
		if a.RequireChannelAccess(group, member, ch) == nil {
			visible = append(visible, ch)
		}
	}
	return visible
}
