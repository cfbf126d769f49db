// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access

// Permission groups define reusable bundles of capabilities.
// Role seeds compose these groups rather than inheriting.

var memberPowers = NewPermissionSet(
	// Reading and writing in open channels
	PermViewChannels,
	PermSendMessages,
	PermEmbedLinks,
	PermAttachFiles,
	PermAddReactions,

	// Voice basics
	PermConnect,
	PermSpeak,
)

var moderatorPowers = NewPermissionSet(
	// Member discipline
	PermKickMembers,
	PermMuteMembers,
	PermDeafenMembers,
	PermMoveMembers,

	// Content moderation
	PermManageMessages,
	PermMentionEveryone,

	// Extras
	PermStream,
	PermUseAIFeatures,
)

var adminPowers = NewPermissionSet(
	PermManageChannels,
	PermManageRoles,
	PermManageGroup,
	PermBanMembers,
)

// RoleSeed describes a role to create when a group is bootstrapped.
type RoleSeed struct {
	Name        string
	Color       string
	Position    int
	Permissions PermissionSet
	IsDefault   bool
}

// DefaultRoleLadder returns the standard roles seeded into every new group:
// a default "Everyone" role at position 0 plus moderator and admin tiers.
// The everyone role is the only default; it is auto-granted to new members
// and protected from deletion.
func DefaultRoleLadder() []RoleSeed {
	return []RoleSeed{
		{
			Name:        "Everyone",
			Color:       "#99aab5",
			Position:    0,
			Permissions: memberPowers,
			IsDefault:   true,
		},
		{
			Name:        "Moderator",
			Color:       "#3498db",
			Position:    50,
			Permissions: memberPowers.Union(moderatorPowers),
		},
		{
			Name:        "Admin",
			Color:       "#e74c3c",
			Position:    100,
			Permissions: memberPowers.Union(moderatorPowers).Union(adminPowers),
		},
	}
}
