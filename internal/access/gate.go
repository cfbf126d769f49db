// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access

// CanView decides channel visibility. An open channel (nil or empty
// allow-list) is visible to every member of its group, including members
// holding no roles at all. A restricted channel is visible only to members
// holding at least one listed role.
func CanView(channel *Channel, member *Member) bool {
	if channel == nil || member == nil {
		return false
	}
	if channel.GroupID != member.GroupID {
		return false
	}
	if channel.Open() {
		return true
	}
	for _, allowed := range channel.AllowedRoleIDs {
		if member.HasRole(allowed) {
			return true
		}
	}
	return false
}

// CanManage reports whether the member may manage the channel: either their
// effective permissions grant MANAGE_CHANNELS or they own the group.
func CanManage(member *Member, roles []Role, group *Group) bool {
	if member == nil {
		return false
	}
	if IsOwner(member.UserID, group) {
		return true
	}
	return EffectivePermissions(roles).Has(PermManageChannels)
}
