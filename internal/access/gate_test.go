// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"

	"github.com/syncora/syncora/internal/access"
)

func makeMember(groupID ulid.ULID, roleIDs ...ulid.ULID) *access.Member {
	return &access.Member{
		ID:      ulid.Make(),
		GroupID: groupID,
		UserID:  ulid.Make(),
		RoleIDs: roleIDs,
	}
}

func TestCanView_OpenChannel(t *testing.T) {
	groupID := ulid.Make()
	roleID := ulid.Make()

	tests := []struct {
		name    string
		allowed []ulid.ULID
		member  *access.Member
	}{
		{"nil allow-list, member with roles", nil, makeMember(groupID, roleID)},
		{"nil allow-list, member without roles", nil, makeMember(groupID)},
		{"empty allow-list, member without roles", []ulid.ULID{}, makeMember(groupID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &access.Channel{
				ID:             ulid.Make(),
				GroupID:        groupID,
				Type:           access.ChannelText,
				AllowedRoleIDs: tt.allowed,
			}
			assert.True(t, access.CanView(ch, tt.member))
		})
	}
}

func TestCanView_RestrictedChannel(t *testing.T) {
	groupID := ulid.Make()
	roleA := ulid.Make()
	roleB := ulid.Make()

	ch := &access.Channel{
		ID:             ulid.Make(),
		GroupID:        groupID,
		Type:           access.ChannelText,
		AllowedRoleIDs: []ulid.ULID{roleB},
	}

	// Disjoint role sets are denied.
	assert.False(t, access.CanView(ch, makeMember(groupID, roleA)))
	// No roles at all is denied.
	assert.False(t, access.CanView(ch, makeMember(groupID)))
	// One shared role suffices.
	assert.True(t, access.CanView(ch, makeMember(groupID, roleA, roleB)))
}

func TestCanView_WrongGroup(t *testing.T) {
	roleID := ulid.Make()
	ch := &access.Channel{
		ID:      ulid.Make(),
		GroupID: ulid.Make(),
		Type:    access.ChannelText,
	}

	outsider := makeMember(ulid.Make(), roleID)
	assert.False(t, access.CanView(ch, outsider))
}

func TestCanView_NilInputs(t *testing.T) {
	groupID := ulid.Make()
	ch := &access.Channel{ID: ulid.Make(), GroupID: groupID}

	assert.False(t, access.CanView(nil, makeMember(groupID)))
	assert.False(t, access.CanView(ch, nil))
}

func TestCanManage(t *testing.T) {
	groupID := ulid.Make()
	group := &access.Group{ID: groupID, OwnerID: ulid.Make()}

	manager := makeRole(groupID, 10, access.NewPermissionSet(access.PermManageChannels))
	bystander := makeRole(groupID, 0, access.NewPermissionSet(access.PermSendMessages))

	member := makeMember(groupID, manager.ID)
	assert.True(t, access.CanManage(member, []access.Role{manager}, group))

	member = makeMember(groupID, bystander.ID)
	assert.False(t, access.CanManage(member, []access.Role{bystander}, group))

	// The owner manages channels with no roles at all.
	ownerMember := &access.Member{ID: ulid.Make(), GroupID: groupID, UserID: group.OwnerID}
	assert.True(t, access.CanManage(ownerMember, nil, group))
}

func TestChannelType_Valid(t *testing.T) {
	assert.True(t, access.ChannelText.Valid())
	assert.True(t, access.ChannelVoice.Valid())
	assert.True(t, access.ChannelAnnouncement.Valid())
	assert.False(t, access.ChannelType("video").Valid())
}
