// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access

import (
	"strings"

	"github.com/samber/oops"
)

// Permission is a single named capability. The set of permissions is closed:
// new capabilities are added here as constants, never as runtime strings, so
// an unknown key is a compile-time error rather than a silent false.
type Permission uint32

// Permission bits. Each capability occupies one bit so a role's grants pack
// into a single PermissionSet integer.
const (
	PermViewChannels Permission = 1 << iota
	PermManageChannels
	PermManageRoles
	PermManageGroup
	PermKickMembers
	PermBanMembers
	PermSendMessages
	PermEmbedLinks
	PermAttachFiles
	PermAddReactions
	PermUseAIFeatures
	PermManageMessages
	PermMentionEveryone
	PermConnect
	PermSpeak
	PermStream
	PermMuteMembers
	PermDeafenMembers
	PermMoveMembers

	permissionCount = iota
)

// permissionNames maps each permission bit to its wire/storage name.
var permissionNames = map[Permission]string{
	PermViewChannels:    "VIEW_CHANNELS",
	PermManageChannels:  "MANAGE_CHANNELS",
	PermManageRoles:     "MANAGE_ROLES",
	PermManageGroup:     "MANAGE_GROUP",
	PermKickMembers:     "KICK_MEMBERS",
	PermBanMembers:      "BAN_MEMBERS",
	PermSendMessages:    "SEND_MESSAGES",
	PermEmbedLinks:      "EMBED_LINKS",
	PermAttachFiles:     "ATTACH_FILES",
	PermAddReactions:    "ADD_REACTIONS",
	PermUseAIFeatures:   "USE_AI_FEATURES",
	PermManageMessages:  "MANAGE_MESSAGES",
	PermMentionEveryone: "MENTION_EVERYONE",
	PermConnect:         "CONNECT",
	PermSpeak:           "SPEAK",
	PermStream:          "STREAM",
	PermMuteMembers:     "MUTE_MEMBERS",
	PermDeafenMembers:   "DEAFEN_MEMBERS",
	PermMoveMembers:     "MOVE_MEMBERS",
}

// String returns the storage name of the permission (e.g. "VIEW_CHANNELS").
func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParsePermission converts a storage name back to its Permission bit.
// Returns an error for names outside the closed set.
func ParsePermission(name string) (Permission, error) {
	for p, n := range permissionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, oops.In("access").Code("UNKNOWN_PERMISSION").With("name", name).Errorf("unknown permission %q", name)
}

// AllPermissionKeys returns every permission in declaration order.
func AllPermissionKeys() []Permission {
	keys := make([]Permission, 0, permissionCount)
	for i := 0; i < permissionCount; i++ {
		keys = append(keys, Permission(1<<i))
	}
	return keys
}

// PermissionSet is a total mapping from every Permission to a boolean,
// packed as a bitset. The zero value grants nothing.
type PermissionSet uint32

// Set bounds.
const (
	// NoPermissions grants nothing.
	NoPermissions PermissionSet = 0
	// AllPermissions grants every capability. Group owners hold this
	// implicitly regardless of role assignment.
	AllPermissions PermissionSet = 1<<permissionCount - 1
)

// NewPermissionSet builds a set from individual permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s |= PermissionSet(p)
	}
	return s
}

// Has reports whether the set grants the permission.
func (s PermissionSet) Has(p Permission) bool {
	return s&PermissionSet(p) != 0
}

// With returns a copy of the set with the given permissions granted.
func (s PermissionSet) With(perms ...Permission) PermissionSet {
	for _, p := range perms {
		s |= PermissionSet(p)
	}
	return s
}

// Without returns a copy of the set with the given permissions revoked.
func (s PermissionSet) Without(perms ...Permission) PermissionSet {
	for _, p := range perms {
		s &^= PermissionSet(p)
	}
	return s
}

// Union merges two sets; the result grants a permission if either side does.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	return s | other
}

// Permissions returns the granted permissions in declaration order.
func (s PermissionSet) Permissions() []Permission {
	perms := make([]Permission, 0, permissionCount)
	for _, p := range AllPermissionKeys() {
		if s.Has(p) {
			perms = append(perms, p)
		}
	}
	return perms
}

// Names returns the storage names of the granted permissions.
func (s PermissionSet) Names() []string {
	perms := s.Permissions()
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.String())
	}
	return names
}

// String renders the set as a pipe-separated name list for logs.
func (s PermissionSet) String() string {
	if s == NoPermissions {
		return "(none)"
	}
	return strings.Join(s.Names(), "|")
}

// ParsePermissionSet builds a set from storage names.
// Returns an error on the first name outside the closed set.
func ParsePermissionSet(names []string) (PermissionSet, error) {
	var s PermissionSet
	for _, name := range names {
		p, err := ParsePermission(name)
		if err != nil {
			return NoPermissions, err
		}
		s = s.With(p)
	}
	return s, nil
}
