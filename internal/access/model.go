// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ChannelType identifies the kind of channel.
type ChannelType string

const (
	ChannelText         ChannelType = "text"
	ChannelVoice        ChannelType = "voice"
	ChannelAnnouncement ChannelType = "announcement"
)

// Valid reports whether the channel type is one of the known kinds.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelText, ChannelVoice, ChannelAnnouncement:
		return true
	default:
		return false
	}
}

// Group is a collaboration workspace. It owns roles, channels, and members.
// The owner implicitly holds every permission in the group.
type Group struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	Name      string
	CreatedAt time.Time
}

// Role is a named, positioned bundle of permissions scoped to a group.
// Higher position means more authority; position is used for the display
// role and never for permission math.
type Role struct {
	ID          ulid.ULID
	GroupID     ulid.ULID
	Name        string
	Color       string // display hex, e.g. "#99aab5"
	Position    int
	Permissions PermissionSet
	IsDefault   bool // auto-granted to new members; protected from deletion
	CreatedAt   time.Time
}

// Member associates a user with a group and the set of roles they hold.
// RoleIDs is membership only; order carries no meaning.
type Member struct {
	ID       ulid.ULID
	GroupID  ulid.ULID
	UserID   ulid.ULID
	RoleIDs  []ulid.ULID
	JoinedAt time.Time
}

// HasRole reports whether the member holds the given role id.
func (m *Member) HasRole(roleID ulid.ULID) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Channel is a sub-space within a group. A nil or empty AllowedRoleIDs list
// means the channel is open to every member of the group; a non-empty list
// restricts visibility to members holding at least one listed role.
type Channel struct {
	ID             ulid.ULID
	GroupID        ulid.ULID
	Name           string
	Topic          string
	Type           ChannelType
	AllowedRoleIDs []ulid.ULID
	CreatedAt      time.Time
}

// Open reports whether the channel is visible to every role in the group.
func (c *Channel) Open() bool {
	return len(c.AllowedRoleIDs) == 0
}
